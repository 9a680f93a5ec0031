// Package llmjson extracts structured values from free-form model output.
// Parsing never fails with an error: callers get either Parsed or Fallback.
package llmjson

import (
	"encoding/json"
	"strings"
)

// Outcome is the result of parsing model output: Parsed or Fallback.
type Outcome interface {
	outcome()
}

// Parsed carries the values extracted from the model output.
type Parsed struct {
	Values []string
}

// Fallback explains why nothing usable was found.
type Fallback struct {
	Reason string
}

func (Parsed) outcome()   {}
func (Fallback) outcome() {}

// Fallback reasons.
const (
	ReasonEmpty    = "empty response"
	ReasonNoArray  = "no json array found"
	ReasonInvalid  = "invalid json array"
	ReasonNotArray = "array does not contain strings"
)

// ParseStringArray finds a JSON array of strings in raw.
// Markdown code fences are stripped first; then the outermost [...] span is decoded.
// Non-string elements make the whole array a Fallback.
func ParseStringArray(raw string) Outcome {
	text := stripFences(strings.TrimSpace(raw))
	if text == "" {
		return Fallback{Reason: ReasonEmpty}
	}

	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end <= start {
		return Fallback{Reason: ReasonNoArray}
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &items); err != nil {
		return Fallback{Reason: ReasonInvalid + ": " + err.Error()}
	}

	values := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return Fallback{Reason: ReasonNotArray}
		}
		values = append(values, s)
	}
	return Parsed{Values: values}
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// language tag on the opening fence
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
