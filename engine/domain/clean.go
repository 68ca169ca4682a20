package domain

import (
	"regexp"
	"strings"
)

var (
	// The source system redacts PII as runs of 'x' characters.
	redactionRuns = regexp.MustCompile(`xx+`)
	spaceRuns     = regexp.MustCompile(`\s+`)
)

// CleanText prepares a raw narrative for chunking: lowercase, strip the
// redaction runs, collapse whitespace left behind by stripped tokens, trim.
// Empty or missing input cleans to the empty string.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = redactionRuns.ReplaceAllString(text, "")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
