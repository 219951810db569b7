package openai

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSONObject = errors.New("no JSON object in model reply")

// ExtractJSONObject decodes the first balanced {...} object in text. Models
// sometimes wrap JSON in prose or code fences.
func ExtractJSONObject(text string) (map[string]any, error) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		end := matchBrace(text, start)
		if end < 0 {
			break
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(text[start:end+1]), &out); err == nil {
			return out, nil
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, ErrNoJSONObject
}

// matchBrace returns the index of the brace closing text[open], honouring
// string literals and escapes, or -1.
func matchBrace(text string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
