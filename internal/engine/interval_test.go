package engine

import (
	"testing"
	"time"
)

func TestParseInterval(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want Interval
	}{
		{"month", Interval{Unit: "month"}},
		{"monthly", Interval{Unit: "month"}},
		{"months", Interval{Unit: "month"}},
		{"yearly", Interval{Unit: "year"}},
		{"2 days", Interval{Unit: "day", N: 2}},
		{"1 week", Interval{Unit: "week", N: 1}},
		{"weekly", Interval{Unit: "week", N: 1}},
		{"6 hours", Interval{Unit: "hour", N: 6}},
		{"90 minutes", Interval{Unit: "minute", N: 90}},
	}
	for _, entry := range cases {
		got, err := ParseInterval(entry.raw)
		if err != nil {
			t.Fatalf("%q: parse failed: %v", entry.raw, err)
		}
		if got != entry.want {
			t.Fatalf("%q: got %+v, want %+v", entry.raw, got, entry.want)
		}
	}
}

func TestParseIntervalRejectsBadInput(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "fortnight", "2", "x days", "-1 day", "1 2 days"} {
		if _, err := ParseInterval(raw); err == nil {
			t.Fatalf("%q: expected parse error", raw)
		}
	}
}

func TestIntervalElapsedCalendarField(t *testing.T) {
	t.Parallel()

	monthly := Interval{Unit: "month"}
	created := time.Date(2026, time.June, 3, 12, 0, 0, 0, time.UTC)

	if monthly.Elapsed(created, time.Date(2026, time.June, 28, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("same calendar month should not rotate")
	}
	if !monthly.Elapsed(created, time.Date(2026, time.July, 1, 0, 5, 0, 0, time.UTC)) {
		t.Fatalf("new calendar month should rotate immediately")
	}

	yearly := Interval{Unit: "year"}
	if !yearly.Elapsed(created, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("new calendar year should rotate")
	}
}

func TestIntervalElapsedCounted(t *testing.T) {
	t.Parallel()

	twoDays := Interval{Unit: "day", N: 2}
	created := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)

	if twoDays.Elapsed(created, created.Add(47*time.Hour)) {
		t.Fatalf("interval not yet elapsed")
	}
	if !twoDays.Elapsed(created, created.Add(49*time.Hour)) {
		t.Fatalf("interval elapsed")
	}
}

func TestIntervalElapsedMonthClamping(t *testing.T) {
	t.Parallel()

	oneMonth := Interval{Unit: "month", N: 1}
	created := time.Date(2026, time.January, 31, 10, 0, 0, 0, time.UTC)

	// January 31 plus one month clamps to February 28 in 2026.
	if oneMonth.Elapsed(created, time.Date(2026, time.February, 28, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("deadline is Feb 28 10:00, should not rotate before it")
	}
	if !oneMonth.Elapsed(created, time.Date(2026, time.February, 28, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("deadline passed, should rotate")
	}
}
