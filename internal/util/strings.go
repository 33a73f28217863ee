package util

import (
	"strings"
	"unicode"
)

// Slug reduces a human-assigned job name to its alphanumeric characters,
// lowercased. The slug is the mutual-exclusion key: two jobs whose names
// reduce to the same slug will share a lock by design.
func Slug(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// TruncateBytes cuts s to at most n bytes without splitting a UTF-8 rune.
func TruncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8Start(s[n]) {
		n--
	}
	return s[:n]
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
