// Package calendar implements the availability calendar: month grids, two-click
// range selection and lease-range validation.
package calendar

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Month is the displayed year-month of a calendar view.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing d.
func MonthOf(d civil.Date) Month {
	return Month{Year: d.Year, Month: d.Month}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q; expected YYYY-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// NavigateMonth shifts the view by delta months with year rollover.
// Navigation is unbounded; only day selection is restricted.
func NavigateMonth(view Month, delta int) Month {
	return view.Add(delta)
}

// Add returns the month delta months away.
func (m Month) Add(delta int) Month {
	t := time.Date(m.Year, m.Month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

// First returns the first day of the month.
func (m Month) First() civil.Date {
	return civil.Date{Year: m.Year, Month: m.Month, Day: 1}
}

// Last returns the last day of the month.
func (m Month) Last() civil.Date {
	return civil.Date{Year: m.Year, Month: m.Month, Day: m.Days()}
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return daysIn(m.Month, m.Year)
}

// Contains reports whether d falls in the month.
func (m Month) Contains(d civil.Date) bool {
	return d.Year == m.Year && d.Month == m.Month
}

// Label is the en-US header text, e.g. "June 2026".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalText encodes the month as YYYY-MM.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a YYYY-MM month.
func (m *Month) UnmarshalText(data []byte) error {
	parsed, err := ParseMonth(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func daysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
