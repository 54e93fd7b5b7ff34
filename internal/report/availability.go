// Package report exports aircraft availability as Excel workbooks.
package report

import (
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/civil"

	"aerolease/internal/calendar"
	"aerolease/internal/models"
)

// Day statuses written to the workbook.
const (
	StatusAvailable   = "available"
	StatusBooked      = "booked"
	StatusUnavailable = "unavailable"
)

// MaxMonths caps the months in one export.
const MaxMonths = 24

var header = []string{"Date", "Weekday", "Status"}

// DayStatus classifies one day the way the calendar grid shows it.
func DayStatus(rules calendar.Rules, aircraft *models.Aircraft, d civil.Date) string {
	switch {
	case d.Before(rules.Earliest):
		return StatusUnavailable
	case aircraft.IsBooked(d):
		return StatusBooked
	}
	return StatusAvailable
}

// WriteAvailability writes one sheet per month starting at from, named
// YYYY-MM, with a row per day of the month.
func WriteAvailability(w io.Writer, rules calendar.Rules, aircraft *models.Aircraft, from calendar.Month, months int) error {
	if aircraft == nil {
		return fmt.Errorf("aircraft is required")
	}
	if months < 1 || months > MaxMonths {
		return fmt.Errorf("months must be between 1 and %d, got %d", MaxMonths, months)
	}

	sw := newSheetWriter()
	defer sw.Close()

	for i := 0; i < months; i++ {
		m := calendar.NavigateMonth(from, i)
		if err := sw.AddSheet(m.String()); err != nil {
			return err
		}
		if err := sw.WriteHeader(header); err != nil {
			return err
		}
		for d := m.First(); !d.After(m.Last()); d = d.AddDays(1) {
			row := []any{d.String(), d.In(time.UTC).Weekday().String(), DayStatus(rules, aircraft, d)}
			if err := sw.WriteRow(row); err != nil {
				return fmt.Errorf("write %s: %w", d, err)
			}
		}
	}

	return sw.Save(w)
}
