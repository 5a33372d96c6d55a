package tags

import "strings"

// weekdays in render order, Monday first.
var weekdays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// SummarizeHours renders a weekday→hours map as readable text. When
// every day carries identical hours the summary collapses to a single
// sentence; otherwise it lists each weekday. Days missing from the map
// or marked closed render as "Closed" rather than being omitted.
func SummarizeHours(weekly map[string]string) string {
	if len(weekly) == 0 {
		return ""
	}

	uniform := ""
	allSame := true
	for i, day := range weekdays {
		hours := normalizeDay(weekly[day])
		if i == 0 {
			uniform = hours
		} else if hours != uniform {
			allSame = false
			break
		}
	}
	if allSame {
		if uniform == "Closed" {
			return "Closed"
		}
		return "Open daily " + uniform
	}

	var b strings.Builder
	for i, day := range weekdays {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(day + ": " + normalizeDay(weekly[day]))
	}
	return b.String()
}

func normalizeDay(hours string) string {
	hours = strings.TrimSpace(hours)
	if hours == "" || strings.EqualFold(hours, "closed") {
		return "Closed"
	}
	return hours
}
