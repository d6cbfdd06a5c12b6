package calendar

import (
	"fmt"
	"math"
	"strings"
)

// FormatMinutes renders working minutes as text, using working days of
// MinutesPerWorkDay and working weeks of MinutesPerWorkWeek.
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "0 minutes"
	}

	weeks := minutes / MinutesPerWorkWeek
	rest := minutes % MinutesPerWorkWeek
	days := rest / MinutesPerWorkDay
	rest %= MinutesPerWorkDay
	hours := rest / 60
	mins := rest % 60

	switch {
	case weeks > 0:
		if weeks == 1 && days == 0 {
			return "1 working week (5 days)"
		}
		parts := []string{plural(weeks, "working week", "working weeks")}
		if days > 0 {
			parts = append(parts, plural(days, "working day", "working days"))
		}
		return strings.Join(parts, " ")
	case days > 0:
		if days == 1 && hours == 0 {
			return "1 working day (8 hours)"
		}
		parts := []string{plural(days, "working day", "working days")}
		if hours > 0 {
			parts = append(parts, plural(hours, "hour", "hours"))
		}
		return strings.Join(parts, " ")
	case hours > 0:
		parts := []string{plural(hours, "hour", "hours")}
		if mins > 0 {
			parts = append(parts, plural(mins, "minute", "minutes"))
		}
		return strings.Join(parts, " ")
	default:
		return plural(mins, "minute", "minutes")
	}
}

// DaysFromMinutes converts working minutes into working days, rounded to two decimals.
func DaysFromMinutes(minutes int) float64 {
	if minutes <= 0 {
		return 0
	}
	return math.Round(float64(minutes)/MinutesPerWorkDay*100) / 100
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
