package model

import "time"

// Ticks are wall-clock instants in 100 ns units since the Unix epoch.
// Stored numerically so range filters and ordering need no locale handling.
const nsPerTick = 100

// TickNow returns the current instant as a tick.
func TickNow() int64 {
	return TickFromTime(time.Now())
}

// TickFromTime converts a time.Time to a tick.
func TickFromTime(t time.Time) int64 {
	return t.UnixNano() / nsPerTick
}

// TimeFromTick converts a tick back to a local time.Time.
func TimeFromTick(tick int64) time.Time {
	return time.Unix(0, tick*nsPerTick)
}

// IntervalWidth is the aggregation bucket width for interval stats.
const IntervalWidth = 10 * time.Minute

// intervalTicks is IntervalWidth expressed in ticks.
const intervalTicks = int64(IntervalWidth / nsPerTick)

// IntervalStart floors a tick to its 10-minute bucket start.
func IntervalStart(tick int64) int64 {
	return tick - tick%intervalTicks
}

// DayName formats the local-time date of a tick as yyyy_mm_dd, the naming
// scheme for per-day store files.
func DayName(tick int64) string {
	return TimeFromTick(tick).Format("2006_01_02")
}

// DayNameFromTime formats a time's local date as yyyy_mm_dd.
func DayNameFromTime(t time.Time) string {
	return t.Format("2006_01_02")
}

// SameLocalDate reports whether a and b fall on the same local calendar day.
func SameLocalDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
