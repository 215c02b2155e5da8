package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the value at maxLen
// runes. Customer names and addresses arrive free-form from the counter UI,
// so truncation must not split a multi-byte character.
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
