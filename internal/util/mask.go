package util

import "unicode/utf8"

// MaskCode hides the second half of a verification code for logging.
func MaskCode(code string) string {
	if len(code) <= 4 {
		return "****"
	}
	return code[:4] + "-****"
}

// Truncate cuts s to at most maxLen runes and marks the cut with "...".
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := 0
	for i := range s {
		if runes == maxLen {
			return s[:i] + "..."
		}
		runes++
	}
	return s
}
