package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeHours_Empty(t *testing.T) {
	assert.Empty(t, SummarizeHours(nil))
	assert.Empty(t, SummarizeHours(map[string]string{}))
}

func TestSummarizeHours_UniformCollapse(t *testing.T) {
	weekly := map[string]string{}
	for _, day := range weekdays {
		weekly[day] = "9:00 AM - 5:00 PM"
	}
	assert.Equal(t, "Open daily 9:00 AM - 5:00 PM", SummarizeHours(weekly))
}

func TestSummarizeHours_AllClosed(t *testing.T) {
	weekly := map[string]string{}
	for _, day := range weekdays {
		weekly[day] = "Closed"
	}
	assert.Equal(t, "Closed", SummarizeHours(weekly))
}

func TestSummarizeHours_PerDayListing(t *testing.T) {
	weekly := map[string]string{
		"Monday":  "9-5",
		"Tuesday": "9-5",
		"Friday":  "9-9",
	}
	out := SummarizeHours(weekly)
	assert.Contains(t, out, "Monday: 9-5")
	assert.Contains(t, out, "Friday: 9-9")
	assert.Contains(t, out, "Sunday: Closed", "missing days render as closed")
	assert.Contains(t, out, "Wednesday: Closed")
}

func TestNormalizeDay(t *testing.T) {
	assert.Equal(t, "Closed", normalizeDay(""))
	assert.Equal(t, "Closed", normalizeDay("closed"))
	assert.Equal(t, "Closed", normalizeDay("  CLOSED  "))
	assert.Equal(t, "9-5", normalizeDay(" 9-5 "))
}
