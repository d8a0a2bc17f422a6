package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamesCascade(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"json list", `["Alpha", "Beta", "Alpha"]`, []string{"Alpha", "Beta"}},
		{"json object preferred key", `{"notes": ["x"], "names": ["Alpha", "Beta"]}`, []string{"Alpha", "Beta"}},
		{"json object first list", `{"count": 2, "picks": ["Alpha", ["Beta", "Gamma"]]}`, []string{"Alpha", "Beta", "Gamma"}},
		{"fenced json", "```json\n[\"Alpha\", \"Beta\"]\n```", []string{"Alpha", "Beta"}},
		{"names block", "Here you go.\nNames:\n1. Alpha\n2) Beta\n", []string{"Alpha", "Beta"}},
		{"bullets", "My picks:\n- Alpha\n* Beta\n3. Gamma", []string{"Alpha", "Beta", "Gamma"}},
		{"delimited", "Alpha, Beta; Gamma", []string{"Alpha", "Beta", "Gamma"}},
		{"quoted", "I would pick \"Alpha\" and also 'Beta'.\nThat is all.", []string{"Alpha", "Beta"}},
		{"plain lines", "Alpha Holo\nBeta Foil\nab", []string{"Alpha Holo", "Beta Foil"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Names(tt.text, 5))
		})
	}
}

func TestNamesCapsAtMax(t *testing.T) {
	got := Names(`["a1","a2","a3","a4","a5","a6","a7"]`, 5)
	assert.Equal(t, []string{"a1", "a2", "a3", "a4", "a5"}, got)
}

func TestNamesFiltersNothingTokens(t *testing.T) {
	for _, text := range []string{"EMPTY", "None", "n/a", "无", "没有", `["none"]`, ""} {
		assert.Empty(t, Names(text, 5), "input %q", text)
	}
	assert.Equal(t, []string{"Alpha"}, Names(`["EMPTY", "Alpha"]`, 5))
}

func TestNamesJSONWithoutListFallsThrough(t *testing.T) {
	got := Names(`{"name": "Dragon Lore", "note": "strong buy"}`, 5)
	assert.Equal(t, []string{`{"name": "Dragon Lore"`, `"note": "strong buy"}`}, got)

	got = Names("{\n  \"name\": \"Dragon Lore\"\n}", 5)
	assert.Equal(t, []string{"name", "Dragon Lore"}, got)
}

func TestNamesExplicitEmptyListIsFinal(t *testing.T) {
	assert.Empty(t, Names(`{"names": []}`, 5))
	assert.Empty(t, Names("[]", 5))
}
