package util

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^<]+?>`)

// StripTags removes angle-bracket markup spans from raw status content,
// leaving the surrounding text untouched. Idempotent on plain text.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// Flatten collapses newlines to spaces so a status fits on one log line.
func Flatten(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

// ContainsAnyFold returns true if text contains any of the needles (case-insensitive).
func ContainsAnyFold(text string, needles []string) bool {
	lt := strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(lt, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
