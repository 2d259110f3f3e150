package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")
	braceRe  = regexp.MustCompile(`(?s)\{.*\}`)
)

// ParseJSON extracts a JSON object from model output, handling fenced
// code blocks and surrounding prose. Unparseable text comes back under
// a raw_response key so callers never see an error.
func ParseJSON(text string) map[string]any {
	if text == "" {
		return map[string]any{}
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err == nil {
		return out
	}

	if m := fencedRe.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &out); err == nil {
			return out
		}
	}

	if m := braceRe.FindString(text); m != "" {
		if err := json.Unmarshal([]byte(m), &out); err == nil {
			return out
		}
	}

	return map[string]any{"raw_response": text}
}
