package parse

import (
	"encoding/json"
	"regexp"

	"llm-daily-trader/internal/types"
)

var objectSpanRe = regexp.MustCompile(`(?s)\{.*\}`)

// ScoreMap decodes a name -> {score, reason} object. Code fences are stripped
// first; if that fails the widest {...} span is tried. ok is false when
// neither attempt decodes.
func ScoreMap(text string) (map[string]types.ScoreResult, bool) {
	if m, ok := decodeScoreMap(stripFences(text)); ok {
		return m, true
	}
	if span := objectSpanRe.FindString(text); span != "" {
		if m, ok := decodeScoreMap(span); ok {
			return m, true
		}
	}
	return map[string]types.ScoreResult{}, false
}

func decodeScoreMap(body string) (map[string]types.ScoreResult, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil || raw == nil {
		return nil, false
	}
	out := make(map[string]types.ScoreResult, len(raw))
	for name, v := range raw {
		switch entry := v.(type) {
		case map[string]any:
			score, ok := Score(entry["score"])
			if !ok {
				continue
			}
			out[name] = types.ScoreResult{Score: score, Reason: String(entry, "reason")}
		default:
			if score, ok := Score(entry); ok {
				out[name] = types.ScoreResult{Score: score}
			}
		}
	}
	return out, true
}
