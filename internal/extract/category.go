package extract

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// canonicalizer rewrites raw section labels into clean, deduplicated
// category names: markdown markers stripped, whitespace collapsed,
// title case. The first spelling seen for a given normalized form wins
// so "Restaurants & Food" and "restaurants & food" map to one category.
type canonicalizer struct {
	titler cases.Caser
	seen   map[string]string
}

func newCanonicalizer() *canonicalizer {
	return &canonicalizer{
		titler: cases.Title(language.English),
		seen:   make(map[string]string),
	}
}

func (c *canonicalizer) canonical(raw string) string {
	cleaned := cleanCategory(raw)
	if cleaned == "" {
		return "Uncategorized"
	}
	key := strings.ToLower(cleaned)
	if existing, ok := c.seen[key]; ok {
		return existing
	}
	canon := c.titler.String(cleaned)
	c.seen[key] = canon
	return canon
}

// cleanCategory strips heading and emphasis markers from a raw label.
func cleanCategory(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "#")
	s = strings.Trim(s, "*_`")
	return strings.Join(strings.Fields(s), " ")
}
