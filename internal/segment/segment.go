// Package segment splits raw guide text into heading-delimited sections.
package segment

import "strings"

// Section is one heading-delimited region of the source document.
// Category is the heading text with markers stripped; text appearing
// before the first heading lands in an anonymous section with
// Category == "" and HeadingLevel 0.
type Section struct {
	Category     string
	HeadingLevel int
	Body         string
}

// Segment splits markdown-ish text on ATX headings. Every non-heading
// line attaches to the most recently seen heading. The function is
// total: no headings (or no text at all) degrades to a single anonymous
// section rather than an error.
func Segment(text string) []Section {
	lines := strings.Split(text, "\n")

	var sections []Section
	current := Section{}

	flush := func() {
		current.Body = strings.TrimSpace(current.Body)
		if current.Body != "" || current.Category != "" {
			sections = append(sections, current)
		}
	}

	for _, line := range lines {
		if level, title, ok := parseHeading(line); ok {
			flush()
			current = Section{Category: title, HeadingLevel: level}
			continue
		}
		current.Body += line + "\n"
	}
	flush()

	if len(sections) == 0 {
		return []Section{{Body: strings.TrimSpace(text)}}
	}
	return sections
}

// parseHeading recognizes ATX headings (# through ######). Trailing
// hash runs and emphasis markers around the title are stripped.
func parseHeading(line string) (level int, title string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return 0, "", false
	}
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 {
		return 0, "", false
	}
	rest := trimmed[level:]
	if rest != "" && !strings.HasPrefix(rest, " ") && !strings.HasPrefix(rest, "\t") {
		return 0, "", false
	}
	title = strings.TrimSpace(rest)
	title = strings.TrimRight(title, "# ")
	title = strings.Trim(title, "*_")
	return level, strings.TrimSpace(title), true
}
