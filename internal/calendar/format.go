package calendar

import (
	"time"

	"cloud.google.com/go/civil"
)

// FormatDate renders a date the way the booking widget displays it, e.g. "Jun 8, 2026".
func FormatDate(d civil.Date) string {
	return d.In(time.UTC).Format("Jan 2, 2006")
}

// FormatLong renders a date with the full month name, e.g. "June 1, 2026".
func FormatLong(d civil.Date) string {
	return d.In(time.UTC).Format("January 2, 2006")
}

// Duration is the inclusive day count of [start, end].
func Duration(start, end civil.Date) int {
	return end.DaysSince(start) + 1
}

// Today returns the civil date of now in loc.
func Today(now time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.Local
	}
	return civil.DateOf(now.In(loc))
}
