// Package slug derives stable, URL-safe identifiers from place names.
package slug

import "strings"

// Make converts a name into a lowercase hyphenated identifier:
// "Tony's Pizza Express" → "tonys-pizza-express". Deterministic for any
// name; an empty or whitespace-only name yields "" (caller error).
func Make(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '-':
			b.WriteByte('-')
		}
	}

	// Collapse hyphen runs and trim.
	parts := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '-' })
	return strings.Join(parts, "-")
}
