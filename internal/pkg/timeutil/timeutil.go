package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const MinutesPerDay = 24 * 60

var clockRegex = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// ParseClock parses an "HH:MM" wall-clock string into minutes past midnight.
func ParseClock(s string) (int, error) {
	m := clockRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid clock time %q: expected HH:MM", s)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes, nil
}

// MinutesBetween returns the whole minutes from a to b, truncated toward zero.
func MinutesBetween(a, b time.Time) int {
	return int(b.Sub(a).Minutes())
}

// DayOf truncates a timestamp to midnight in the given location.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// ClockMinutes returns the minutes past local midnight for a timestamp.
func ClockMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// SpanMinutes returns the length of the [start, end] wall-clock span in
// minutes, both given as minutes past midnight. A span that ends at or
// before its start is treated as crossing midnight.
func SpanMinutes(startClock, endClock int) int {
	span := endClock - startClock
	if span <= 0 {
		span += MinutesPerDay
	}
	return span
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// NightMinutes returns the number of minutes of [start, end) that fall
// inside the night window [nightStart, nightEnd) given as clock minutes,
// where the window crosses midnight (e.g. 22:00-06:00). The intersection is
// exact: the interval is walked day by day against each night window it can
// touch.
func NightMinutes(start, end time.Time, nightStartClock, nightEndClock int) int {
	if !end.After(start) {
		return 0
	}

	total := 0
	// Anchor windows on each calendar day the interval touches, plus the day
	// before, so a window opening at 22:00 yesterday is still considered.
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	day = day.AddDate(0, 0, -1)
	for !day.After(end) {
		winStart := day.Add(time.Duration(nightStartClock) * time.Minute)
		winEnd := winStart.Add(time.Duration(SpanMinutes(nightStartClock, nightEndClock)) * time.Minute)
		total += overlapMinutes(start, end, winStart, winEnd)
		day = day.AddDate(0, 0, 1)
	}
	return total
}

func overlapMinutes(aStart, aEnd, bStart, bEnd time.Time) int {
	lo := aStart
	if bStart.After(lo) {
		lo = bStart
	}
	hi := aEnd
	if bEnd.Before(hi) {
		hi = bEnd
	}
	if !hi.After(lo) {
		return 0
	}
	return int(hi.Sub(lo).Minutes())
}

// AtClock returns the timestamp on day's date at the given clock minutes.
func AtClock(day time.Time, clockMinutes int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()).
		Add(time.Duration(clockMinutes) * time.Minute)
}

// DaysInMonth returns the number of calendar days in the month containing t.
func DaysInMonth(t time.Time) int {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
