// Package transcript normalizes raw call transcripts before extraction.
package transcript

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	speakerRe    = regexp.MustCompile(`(?i)\b(agent|customer)\s*:`)
)

// Normalize collapses runs of whitespace into single spaces and canonicalizes
// speaker labels to "Agent:" / "Customer:". Unrecognized speaker labels pass
// through unchanged. Normalize is total and idempotent.
func Normalize(text string) string {
	t := whitespaceRe.ReplaceAllString(text, " ")
	t = speakerRe.ReplaceAllStringFunc(t, func(m string) string {
		label := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(m, ":")))
		switch label {
		case "agent":
			return "Agent:"
		case "customer":
			return "Customer:"
		}
		return m
	})
	return strings.TrimSpace(t)
}
