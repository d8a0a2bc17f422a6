// Package parse turns free-form oracle text into structured values.
package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// nothingTokens are oracle replies meaning "no candidates".
var nothingTokens = map[string]struct{}{
	"empty":   {},
	"none":    {},
	"n/a":     {},
	"nothing": {},
	"无":       {},
	"没有":      {},
}

var (
	namesBlockRe  = regexp.MustCompile(`(?i)names[:\s]*\n([\s\S]{0,1000})`)
	blockPrefixRe = regexp.MustCompile(`^[-\d.)\s]+`)
	bulletRe      = regexp.MustCompile(`^(?:[-*•]\s+|\d+[.)]\s+)`)
	delimiterRe   = regexp.MustCompile(`[;,]\s*`)
	quotedRe      = regexp.MustCompile(`"([^"\n]+)"|'([^'\n]+)'`)
)

type nameStrategy func(text string) []string

var textStrategies = []nameStrategy{
	namesFromBlock,
	namesFromBullets,
	namesFromDelimited,
	namesFromQuoted,
	namesFromLines,
}

// Names extracts at most maxItems distinct names from text. A JSON reply
// carrying a list is final, even an empty one. Otherwise the text strategies
// run in order and the first that yields anything wins. Sentinel "nothing"
// tokens are removed afterwards.
func Names(text string, maxItems int) []string {
	list, hasList := namesFromJSON(text)
	found := dedupe(list)
	if !hasList {
		for _, s := range textStrategies {
			if found = dedupe(s(text)); len(found) > 0 {
				break
			}
		}
	}

	out := make([]string, 0, len(found))
	for _, name := range found {
		if isNothing(name) {
			continue
		}
		out = append(out, name)
		if maxItems > 0 && len(out) == maxItems {
			break
		}
	}
	return out
}

func isNothing(name string) bool {
	_, ok := nothingTokens[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

var preferredListKeys = []string{"names", "data", "items", "results"}

// namesFromJSON reports whether text was JSON holding a list, alongside its names.
func namesFromJSON(text string) ([]string, bool) {
	body := bytes.TrimSpace([]byte(stripFences(text)))
	if len(body) == 0 || !json.Valid(body) {
		return nil, false
	}
	switch body[0] {
	case '[':
		var list []any
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, false
		}
		return flatten(list), true
	case '{':
		fields, err := orderedFields(body)
		if err != nil {
			return nil, false
		}
		for _, key := range preferredListKeys {
			for _, f := range fields {
				if f.key != key {
					continue
				}
				if list, ok := asList(f.value); ok {
					return flatten(list), true
				}
			}
		}
		for _, f := range fields {
			if list, ok := asList(f.value); ok {
				return flatten(list), true
			}
		}
	}
	return nil, false
}

type field struct {
	key   string
	value json.RawMessage
}

// orderedFields decodes a JSON object keeping document order.
func orderedFields(body []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		fields = append(fields, field{key: key, value: raw})
	}
	return fields, nil
}

func asList(raw json.RawMessage) ([]any, bool) {
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	return list, true
}

// flatten renders items as strings, expanding one level of nested lists.
func flatten(list []any) []string {
	out := make([]string, 0, len(list))
	for _, it := range list {
		switch v := it.(type) {
		case nil:
		case string:
			out = append(out, v)
		case []any:
			for _, inner := range v {
				if inner != nil {
					out = append(out, fmt.Sprint(inner))
				}
			}
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

func namesFromBlock(text string) []string {
	m := namesBlockRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(m[1], "\n") {
		line = blockPrefixRe.ReplaceAllString(strings.TrimSpace(line), "")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func namesFromBullets(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if loc := bulletRe.FindStringIndex(line); loc != nil {
			out = append(out, line[loc[1]:])
		}
	}
	return out
}

func namesFromDelimited(text string) []string {
	text = strings.TrimSpace(text)
	if strings.Contains(text, "\n") || !strings.ContainsAny(text, ",;") {
		return nil
	}
	return delimiterRe.Split(text, -1)
}

func namesFromQuoted(text string) []string {
	var out []string
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			out = append(out, m[1])
		} else {
			out = append(out, m[2])
		}
	}
	return out
}

func namesFromLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) > 2 {
			out = append(out, line)
		}
	}
	return out
}

// stripFences removes a surrounding markdown code fence.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
