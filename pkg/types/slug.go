package types

import (
	"strings"
	"unicode"
)

// ProductIDFromName derives the product ID from a display name: lowercased,
// spaces replaced by underscores, and every rune other than letters, digits
// and underscores removed. Distinct names may map to the same ID
// ("A B" and "A_B"); the creation wizard refuses the second one.
func ProductIDFromName(name string) string {
	lower := strings.ReplaceAll(strings.ToLower(name), " ", "_")
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
