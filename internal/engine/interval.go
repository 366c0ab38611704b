package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interval is one parsed rotation interval.
// Params: normalized unit and count; a zero count marks a unit-only
// interval that rotates on calendar boundaries of that unit.
// Returns: comparable interval for rotation checks.
type Interval struct {
	Unit string
	N    int
}

var intervalUnits = map[string]bool{
	"year":   true,
	"month":  true,
	"week":   true,
	"day":    true,
	"hour":   true,
	"minute": true,
	"second": true,
}

// ParseInterval normalizes a raw interval string.
// Params: forms like "month", "monthly", "2 days", "1 week".
// Returns: parsed interval; units accept plural and -ly suffixes.
func ParseInterval(raw string) (Interval, error) {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 || len(fields) > 2 {
		return Interval{}, fmt.Errorf("invalid interval %q", raw)
	}

	unit := strings.TrimRight(fields[len(fields)-1], "s")
	unit = strings.TrimSuffix(unit, "ly")

	n := 0
	if len(fields) == 2 {
		parsed, err := strconv.Atoi(fields[0])
		if err != nil || parsed <= 0 {
			return Interval{}, fmt.Errorf("invalid interval count in %q", raw)
		}
		n = parsed
	}
	// A calendar week is not a datetime field, so a bare "week"
	// means every one week.
	if unit == "week" && n == 0 {
		n = 1
	}

	if !intervalUnits[unit] {
		return Interval{}, fmt.Errorf("unknown interval unit in %q", raw)
	}
	return Interval{Unit: unit, N: n}, nil
}

// Elapsed reports whether the interval has passed since the thread
// was created.
// Params: creation time of the current thread and the current time,
// both in UTC.
// Returns: true when a new thread is due. Unit-only intervals compare
// the calendar field itself, so "month" rotates on the first check in
// a new calendar month regardless of the creation day.
func (iv Interval) Elapsed(created, now time.Time) bool {
	if iv.N == 0 {
		return calendarField(created, iv.Unit) != calendarField(now, iv.Unit)
	}
	return now.After(iv.addTo(created))
}

func calendarField(t time.Time, unit string) int {
	switch unit {
	case "year":
		return t.Year()
	case "month":
		return int(t.Month())
	case "day":
		return t.Day()
	case "hour":
		return t.Hour()
	case "minute":
		return t.Minute()
	default:
		return t.Second()
	}
}

func (iv Interval) addTo(t time.Time) time.Time {
	switch iv.Unit {
	case "year":
		return addDateClamped(t, iv.N, 0)
	case "month":
		return addDateClamped(t, 0, iv.N)
	case "week":
		return t.AddDate(0, 0, 7*iv.N)
	case "day":
		return t.AddDate(0, 0, iv.N)
	case "hour":
		return t.Add(time.Duration(iv.N) * time.Hour)
	case "minute":
		return t.Add(time.Duration(iv.N) * time.Minute)
	default:
		return t.Add(time.Duration(iv.N) * time.Second)
	}
}

// addDateClamped shifts by whole years and months, clamping the day
// to the length of the target month. Jan 31 + 1 month lands on
// Feb 28/29, not Mar 2/3 as time.AddDate would normalize.
func addDateClamped(t time.Time, years, months int) time.Time {
	year, month, day := t.Date()
	month += time.Month(months)
	year += years

	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(firstOfTarget); day > last {
		day = last
	}
	hour, minute, second := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		hour, minute, second, t.Nanosecond(), t.Location())
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
