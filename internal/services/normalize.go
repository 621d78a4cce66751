package services

import (
	"strings"
	"unicode/utf8"
)

// truncateRunes cuts s to at most limit runes. It never splits a multi-byte
// character.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// clampText truncates client free text to its storage limit and then trims
// it. The order matters: the result is never derived from an untruncated
// string.
func clampText(s string, limit int) string {
	return strings.TrimSpace(truncateRunes(s, limit))
}

// normalizeName clamps s to limit and collapses every whitespace run to a
// single space.
func normalizeName(s string, limit int) string {
	return strings.Join(strings.Fields(clampText(s, limit)), " ")
}

// tokenPrefix returns at most the first 8 characters of a credential for logs.
func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
