package common

import "unicode/utf8"

// WipeByteArray zeroes the buffer in place.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Truncate returns s cut to at most limit runes followed by "..." when it is
// longer than limit. Shorter strings are returned as is.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "..."
}
