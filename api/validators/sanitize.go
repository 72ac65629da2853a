package validators

import "strings"

// SanitizeString trims the input, collapses inner whitespace runs and caps it
// at maxLen runes so accented Portuguese text is never cut mid-character.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return cleaned
}
