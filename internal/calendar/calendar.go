package calendar

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/pl"
	"github.com/rickar/cal/v2/us"
)

const (
	// WorkStartHour is the first hour of the working window.
	WorkStartHour = 9
	// WorkEndHour is the hour at which the working window closes.
	WorkEndHour = 17
	// MinutesPerWorkDay is the length of the working window in minutes.
	MinutesPerWorkDay = (WorkEndHour - WorkStartHour) * 60
	// MinutesPerWorkWeek covers five working days.
	MinutesPerWorkWeek = 5 * MinutesPerWorkDay
)

// Date is a civil calendar date without a time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// HolidayRules returns the public holiday rules for an ISO country code.
// "NONE" (or an empty code) yields a calendar with weekends only.
func HolidayRules(country string) ([]*cal.Holiday, error) {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "", "NONE":
		return nil, nil
	case "PL":
		return pl.Holidays, nil
	case "US":
		return us.Holidays, nil
	default:
		return nil, fmt.Errorf("unsupported holiday country %q", country)
	}
}

// WorkCalendar answers working-day questions for a fixed set of holiday rules.
// Holiday dates are resolved per calendar year on first use; a WorkCalendar is
// safe for concurrent use and never changes its answers once built.
type WorkCalendar struct {
	loc   *time.Location
	rules []*cal.Holiday

	mu    sync.RWMutex
	years map[int]map[Date]string
}

// New builds a WorkCalendar for the given rules. A nil location means UTC.
func New(loc *time.Location, rules []*cal.Holiday) *WorkCalendar {
	if loc == nil {
		loc = time.UTC
	}
	return &WorkCalendar{
		loc:   loc,
		rules: rules,
		years: make(map[int]map[Date]string),
	}
}

// ForCountry builds a WorkCalendar from a country code and an IANA time zone name.
func ForCountry(country, timezone string) (*WorkCalendar, error) {
	rules, err := HolidayRules(country)
	if err != nil {
		return nil, err
	}
	loc := time.UTC
	if timezone != "" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load time zone %q: %w", timezone, err)
		}
	}
	return New(loc, rules), nil
}

// Location is the reference time zone all instants are normalized to.
func (c *WorkCalendar) Location() *time.Location {
	return c.loc
}

// IsHoliday reports whether the date is a public holiday and returns its name.
func (c *WorkCalendar) IsHoliday(d Date) (bool, string) {
	name, ok := c.holidays(d.Year)[d]
	return ok, name
}

// IsWorkingDay returns false for Saturdays, Sundays and public holidays.
func (c *WorkCalendar) IsWorkingDay(d Date) bool {
	switch time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	holiday, _ := c.IsHoliday(d)
	return !holiday
}

// Holidays lists the holiday dates of a year.
func (c *WorkCalendar) Holidays(year int) map[Date]string {
	set := c.holidays(year)
	out := make(map[Date]string, len(set))
	for d, name := range set {
		out[d] = name
	}
	return out
}

func (c *WorkCalendar) holidays(year int) map[Date]string {
	c.mu.RLock()
	set, ok := c.years[year]
	c.mu.RUnlock()
	if ok {
		return set
	}

	set = make(map[Date]string, len(c.rules))
	for _, h := range c.rules {
		actual, _ := h.Calc(year)
		if actual.IsZero() {
			continue
		}
		set[DateOf(actual)] = h.Name
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.years[year]; ok {
		return existing
	}
	c.years[year] = set
	return set
}
