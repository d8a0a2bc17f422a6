package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectExtractsEmbeddedJSON(t *testing.T) {
	obj, ok := Object("Sure! Here it is: {\"decision\": \"SELL\", \"reason\": \"peaked\"} hope that helps")
	require.True(t, ok)
	assert.Equal(t, "SELL", String(obj, "decision"))
	assert.Equal(t, "peaked", String(obj, "reason"))
}

func TestObjectFallback(t *testing.T) {
	for _, text := range []string{"no json here", "{broken", "{\"a\": 1} and {\"b\": 2}", ""} {
		obj, ok := Object(text)
		assert.False(t, ok, text)
		assert.Equal(t, ReasonUnparsed, obj["reason"])
		assert.Equal(t, text, obj["raw"])
	}
}

func TestScoreCoercion(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{float64(72), 72, true},
		{"81", 81, true},
		{float64(140), 100, true},
		{float64(-3), 0, true},
		{"high", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := Score(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
