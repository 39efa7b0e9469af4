// Package format holds the small display helpers shared by every frontend.
package format

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order; TMDB sometimes sends partial dates.
var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// Year returns the four-digit year of a TMDB date ("2021-05-06" -> "2021",
// "2021" -> "2021"). Empty or unparseable input gives "".
func Year(date string) string {
	if date == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return fmt.Sprintf("%d", t.Year())
		}
	}
	return ""
}

// Truncate cuts text to maxLen runes and appends "..." when it was longer.
func Truncate(text string, maxLen int) string {
	if text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen < 0 {
		maxLen = 0
	}
	return strings.TrimSpace(string(runes[:maxLen])) + "..."
}

// Rating formats a 0-10 vote average with one decimal.
func Rating(avg float64) string {
	return fmt.Sprintf("%.1f", avg)
}

// Runtime formats minutes as "45m" or "2h 5m". Zero gives "".
func Runtime(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	hours, rest := minutes/60, minutes%60
	if hours == 0 {
		return fmt.Sprintf("%dm", rest)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}
