package clock

import "time"

// Clock provides current time abstraction for deterministic tests.
// Params: none.
// Returns: current wall-clock time in UTC and local zone.
type Clock interface {
	Now() time.Time
	NowLocal() time.Time
}

// RealClock reads current time from the system clock.
// Params: none.
// Returns: current timestamps.
type RealClock struct{}

// Now returns current UTC time.
// Params: none.
// Returns: current UTC timestamp.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// NowLocal returns current time in the process local zone.
// Params: none.
// Returns: current local timestamp.
func (RealClock) NowLocal() time.Time {
	return time.Now()
}
