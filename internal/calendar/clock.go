package calendar

import "time"

// Clock measures elapsed working minutes under a WorkCalendar.
type Clock struct {
	cal *WorkCalendar
}

// NewClock creates a Clock bound to the given calendar.
func NewClock(cal *WorkCalendar) *Clock {
	return &Clock{cal: cal}
}

// Calendar returns the calendar the clock measures against.
func (c *Clock) Calendar() *WorkCalendar {
	return c.cal
}

// MinutesBetween returns the working minutes between start and end.
//
// When both instants fall on the same calendar date every elapsed minute is
// counted, whatever the weekday or time of day. Longer spans only count the
// 09:00-17:00 window of working days. Partial minutes are dropped per day and
// the result is never negative.
func (c *Clock) MinutesBetween(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	loc := c.cal.Location()
	start = start.In(loc)
	end = end.In(loc)
	if !start.Before(end) {
		return 0
	}

	if DateOf(start) == DateOf(end) {
		return wholeMinutes(end.Sub(start))
	}

	total := 0
	last := DateOf(end)
	for day := DateOf(start); ; day = nextDay(day) {
		if c.cal.IsWorkingDay(day) {
			windowStart := time.Date(day.Year, day.Month, day.Day, WorkStartHour, 0, 0, 0, loc)
			windowEnd := time.Date(day.Year, day.Month, day.Day, WorkEndHour, 0, 0, 0, loc)

			from := windowStart
			if start.After(from) {
				from = start
			}
			to := windowEnd
			if end.Before(to) {
				to = end
			}
			if to.After(from) {
				total += wholeMinutes(to.Sub(from))
			}
		}
		if day == last {
			break
		}
	}
	return total
}

func wholeMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

func nextDay(d Date) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+1, 12, 0, 0, 0, time.UTC))
}
