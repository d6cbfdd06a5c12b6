package calendar

import (
	"fmt"
	"strings"
	"time"
)

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseInstant parses a user supplied instant. Values without a zone are
// read in loc. A bare date means the end of that day, so the whole day is
// included in measurements up to it.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty instant")
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if d, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised instant %q, expected RFC 3339 or YYYY-MM-DD[ HH:MM]", s)
}
