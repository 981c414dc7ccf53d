package assistant

import (
	"errors"
	"strings"
)

var errNoJSON = errors.New("no JSON object in model output")

// ExtractJSON returns the outermost JSON object of a completion. Models often
// wrap the object in a ```json fence or add a sentence around it.
func ExtractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	if i := strings.Index(s, "```"); i >= 0 {
		inner := s[i+3:]
		inner = strings.TrimPrefix(inner, "json")
		inner = strings.TrimPrefix(inner, "JSON")
		if end := strings.Index(inner, "```"); end >= 0 {
			inner = inner[:end]
		}
		s = strings.TrimSpace(inner)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", errNoJSON
	}
	return s[start : end+1], nil
}
