package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-daily-trader/internal/types"
)

func TestScoreMapFenced(t *testing.T) {
	text := "```json\n{\"Alpha\": {\"score\": 80, \"reason\": \"hype\"}, \"Beta\": {\"score\": 35, \"reason\": \"flat\"}}\n```"
	got, ok := ScoreMap(text)
	require.True(t, ok)
	assert.Equal(t, map[string]types.ScoreResult{
		"Alpha": {Score: 80, Reason: "hype"},
		"Beta":  {Score: 35, Reason: "flat"},
	}, got)
}

func TestScoreMapEmbedded(t *testing.T) {
	got, ok := ScoreMap("Scores follow.\n{\"Alpha\": {\"score\": \"66\", \"reason\": \"ok\"}, \"Beta\": 40}\nDone.")
	require.True(t, ok)
	assert.Equal(t, 66, got["Alpha"].Score)
	assert.Equal(t, 40, got["Beta"].Score)
}

func TestScoreMapSkipsEntriesWithoutScore(t *testing.T) {
	got, ok := ScoreMap(`{"Alpha": {"reason": "no score"}, "Beta": {"score": 50}}`)
	require.True(t, ok)
	assert.NotContains(t, got, "Alpha")
	assert.Contains(t, got, "Beta")
}

func TestScoreMapFailure(t *testing.T) {
	got, ok := ScoreMap("I cannot score these items today.")
	assert.False(t, ok)
	assert.Empty(t, got)
}
