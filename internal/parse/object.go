package parse

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ReasonUnparsed marks the fallback object returned for unparseable text.
const ReasonUnparsed = "could not parse model output"

// Object extracts the span from the first '{' to the last '}' and decodes it.
// On failure it returns a fallback carrying ReasonUnparsed and the raw text.
func Object(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		var obj map[string]any
		if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil && obj != nil {
			return obj, true
		}
	}
	return map[string]any{"reason": ReasonUnparsed, "raw": text}, false
}

// Score reads a 0..100 score from a decoded value, accepting numbers and
// numeric strings.
func Score(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	switch {
	case f < 0:
		f = 0
	case f > 100:
		f = 100
	}
	return int(f + 0.5), true
}

// String reads a string field, returning "" when absent or not a string.
func String(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
