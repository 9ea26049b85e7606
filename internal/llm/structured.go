package llm

import (
	"encoding/json"
	"strings"
)

// UnmarshalStructured parses a model reply that is supposed to be a single
// JSON object. Providers frequently wrap JSON output in markdown code fences;
// standard fence markers are stripped before parsing. Malformed output yields
// an error that callers are expected to treat as "no result", never as stored
// data.
func UnmarshalStructured(raw string, out interface{}) error {
	cleaned := StripFences(raw)
	return json.Unmarshal([]byte(cleaned), out)
}

// StripFences removes a leading ```json (or bare ```) fence and a trailing
// ``` fence, if present.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}
