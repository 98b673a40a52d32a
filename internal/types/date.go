package types

import "time"

// AddMonthsClamped adds n months to t, clamping the day of month to the last
// day of the target month instead of letting it overflow into the next month
// the way time.AddDate does (Jan 31 + 1 month is Feb 28/29, not Mar 2/3).
// The time of day and location are preserved.
func AddMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()

	firstOfTarget := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month())
	if day > lastDay {
		day = lastDay
	}

	hour, min, sec := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in the given month
func daysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SameDay returns true when both times fall on the same calendar date in UTC
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// BeginningOfDay truncates t to midnight UTC
func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
