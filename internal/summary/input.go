package summary

import "strings"

const (
	messageSeparator = "\n\n---\n\n"
	maxInputChars    = 15000
	truncationMark   = "...(truncated)"
)

// BuildInput joins message texts with a visible separator and caps the
// result so the request stays inside the model's context budget.
// Returns the combined text and whether truncation happened.
func BuildInput(texts []string) (string, bool) {
	combined := strings.Join(texts, messageSeparator)
	if len(combined) <= maxInputChars {
		return combined, false
	}
	return combined[:maxInputChars] + truncationMark, true
}
