package util

import (
	"errors"
	"strings"
)

// ErrNoJSONFound means the text holds no balanced {...} object.
var ErrNoJSONFound = errors.New("no JSON object found")

// ExtractFirstJSONObject returns the first balanced JSON object in s.
// Prose or markdown fences before and after the object are ignored, as is
// everything following the closing brace. Braces inside string literals do
// not count towards the depth.
func ExtractFirstJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", ErrNoJSONFound
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSONFound
}

// ExtractFirstJSONObjectNaive is the plain depth counter: it tracks only
// '{' and '}' and so mis-reads objects whose string values contain braces.
func ExtractFirstJSONObjectNaive(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", ErrNoJSONFound
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSONFound
}
