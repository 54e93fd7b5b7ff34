package calendar

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
)

var (
	ErrMissingDates     = errors.New("please select start and end dates")
	ErrStartInPast      = errors.New("start date cannot be in the past")
	ErrEndNotAfterStart = errors.New("end date must be after start date")
)

// OutOfWindowError rejects a date before the earliest bookable date.
type OutOfWindowError struct {
	Date     civil.Date
	Earliest civil.Date
}

func (e *OutOfWindowError) Error() string {
	return fmt.Sprintf("aircraft available for booking from %s only; please select dates after %s",
		FormatLong(e.Earliest), FormatDate(e.Earliest))
}

// LeaseTooShortError rejects a range shorter than the aircraft minimum.
type LeaseTooShortError struct {
	Duration int
	Min      int
}

func (e *LeaseTooShortError) Error() string {
	return fmt.Sprintf("minimum lease period for this aircraft is %d days, selected %d", e.Min, e.Duration)
}

// LeaseTooLongError rejects a range longer than the aircraft maximum.
type LeaseTooLongError struct {
	Duration int
	Max      int
}

func (e *LeaseTooLongError) Error() string {
	return fmt.Sprintf("maximum lease period for this aircraft is %d days, selected %d", e.Max, e.Duration)
}

// DateConflictError reports the first booked date inside a requested range.
type DateConflictError struct {
	Date civil.Date
}

func (e *DateConflictError) Error() string {
	return fmt.Sprintf("aircraft is not available on %s", FormatDate(e.Date))
}

// Error codes returned by Code.
const (
	CodeOutOfWindow      = "out_of_window"
	CodeLeaseTooShort    = "lease_too_short"
	CodeLeaseTooLong     = "lease_too_long"
	CodeDateConflict     = "date_conflict"
	CodeMissingDates     = "missing_dates"
	CodeStartInPast      = "start_in_past"
	CodeEndNotAfterStart = "end_not_after_start"
)

// Code classifies a calendar error for metrics and API responses.
// It returns "" for errors that did not originate here.
func Code(err error) string {
	var (
		outOfWindow *OutOfWindowError
		tooShort    *LeaseTooShortError
		tooLong     *LeaseTooLongError
		conflict    *DateConflictError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &outOfWindow):
		return CodeOutOfWindow
	case errors.As(err, &tooShort):
		return CodeLeaseTooShort
	case errors.As(err, &tooLong):
		return CodeLeaseTooLong
	case errors.As(err, &conflict):
		return CodeDateConflict
	case errors.Is(err, ErrMissingDates):
		return CodeMissingDates
	case errors.Is(err, ErrStartInPast):
		return CodeStartInPast
	case errors.Is(err, ErrEndNotAfterStart):
		return CodeEndNotAfterStart
	}
	return ""
}
