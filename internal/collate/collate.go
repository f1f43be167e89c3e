// Package collate derives the case-insensitive keys under which account
// names are indexed. Two names collide when their keys are equal.
package collate

import (
	"strings"
	"unicode"
)

// Key folds s for case-insensitive, whitespace-insensitive comparison:
// lowercased, interior whitespace runs collapsed to a single space, leading
// and trailing whitespace dropped.
func Key(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Equal reports whether two names collate to the same key.
func Equal(a, b string) bool { return Key(a) == Key(b) }
