// Package llmjson pulls a JSON value out of free-form model output.
//
// Models wrap the JSON they were asked for in prose or markdown fences, so
// callers locate the first candidate value, cut it out with a delimiter-
// balanced scan and decode it. Every failure is a *ParseError with a Kind.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

type Kind string

const (
	// KindNoMatch: no opening delimiter with the expected lead-in.
	KindNoMatch Kind = "no_match"
	// KindUnterminated: an opening delimiter was found but never closed.
	KindUnterminated Kind = "unterminated"
	// KindMalformed: the extracted text is not valid JSON for the target.
	KindMalformed Kind = "malformed"
	// KindEmpty: the value decoded but holds nothing usable.
	KindEmpty Kind = "empty"
)

type ParseError struct {
	Kind Kind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llmjson: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("llmjson: %s", e.Kind)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Empty builds a KindEmpty error for callers that validate decoded values.
func Empty(reason string) *ParseError {
	return &ParseError{Kind: KindEmpty, Err: fmt.Errorf("%s", reason)}
}

// ExtractArray returns the first array in s whose first element is an object.
func ExtractArray(s string) (string, error) {
	return extract(s, '[', ']', func(rest string) bool {
		return strings.HasPrefix(rest, "{")
	})
}

// ExtractObject returns the first object in s whose first key is key.
func ExtractObject(s, key string) (string, error) {
	lead := `"` + key + `"`
	return extract(s, '{', '}', func(rest string) bool {
		return strings.HasPrefix(rest, lead)
	})
}

// DecodeArray extracts and decodes an array of objects.
func DecodeArray[T any](s string) ([]T, error) {
	raw, err := ExtractArray(s)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &ParseError{Kind: KindMalformed, Err: err}
	}
	return out, nil
}

// DecodeObject extracts and decodes an object whose first key is key.
func DecodeObject[T any](s, key string) (T, error) {
	var out T
	raw, err := ExtractObject(s, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, &ParseError{Kind: KindMalformed, Err: err}
	}
	return out, nil
}

func extract(s string, open, close byte, lead func(rest string) bool) (string, error) {
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] != open {
			continue
		}
		rest := strings.TrimLeftFunc(s[i+1:], unicode.IsSpace)
		if lead(rest) {
			start = i
			break
		}
	}
	if start < 0 {
		return "", &ParseError{Kind: KindNoMatch}
	}

	end := matchClose(s[start:], open, close)
	if end < 0 {
		return "", &ParseError{Kind: KindUnterminated}
	}
	return s[start : start+end+1], nil
}

// matchClose returns the index of the delimiter closing s[0], skipping
// delimiters inside quoted strings, or -1.
func matchClose(s string, open, close byte) int {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
