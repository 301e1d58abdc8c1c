package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims surrounding whitespace and caps the result at maxLen
// runes so multi-byte names are never cut mid-character.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) <= maxLen {
		return trimmed
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}

// SanitizePhone drops control characters and collapses inner whitespace runs
// to one space. The number is otherwise kept as typed.
func SanitizePhone(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, input)
	return SanitizeString(strings.Join(strings.Fields(cleaned), " "), maxLen)
}
