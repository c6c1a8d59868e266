// Package normalize strips subtitle timing and markup noise from raw text.
package normalize

import (
	"regexp"
	"strings"
)

var (
	timecodeRange = regexp.MustCompile(`\d{2}:\d{2}:\d{2}[.,]\d{1,3} --> \d{2}:\d{2}:\d{2}[.,]\d{1,3}`)
	timestamp     = regexp.MustCompile(`\d{2}:\d{2}:\d{2}`)
	noise         = regexp.MustCompile(`[^a-zA-Z0-9\s.,!?']`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// Text removes timecodes, replaces every character outside
// [a-zA-Z0-9 whitespace . , ! ? '] with a space and collapses whitespace.
// The result is stable: Text(Text(x)) == Text(x).
func Text(raw string) string {
	text := timecodeRange.ReplaceAllString(raw, "")
	text = timestamp.ReplaceAllString(text, "")
	text = noise.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
