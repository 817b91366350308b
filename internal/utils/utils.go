package utils

import "unicode/utf8"

// Head returns at most limit runes from the start of s. Unlike TruncateForLog it
// neither trims nor marks the cut, so the result is a plain prefix of s.
func Head(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
