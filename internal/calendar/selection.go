package calendar

import (
	"cloud.google.com/go/civil"

	"aerolease/internal/models"
)

// DefaultEarliest is the earliest date the fleet can be booked from.
var DefaultEarliest = civil.Date{Year: 2026, Month: 6, Day: 1}

// Rules holds the process-wide selection constraints.
type Rules struct {
	// Earliest is the floor date; nothing before it is selectable.
	Earliest civil.Date
}

// DefaultRules returns rules with DefaultEarliest.
func DefaultRules() Rules {
	return Rules{Earliest: DefaultEarliest}
}

// Selection is a two-click date range. End is only set when Start is set,
// and Start <= End when both are present.
type Selection struct {
	Start *civil.Date `json:"start,omitempty"`
	End   *civil.Date `json:"end,omitempty"`
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return s.Start == nil
}

// IsOpen reports whether a start is chosen and the end is still pending.
func (s Selection) IsOpen() bool {
	return s.Start != nil && s.End == nil
}

// IsClosed reports whether both endpoints are set.
func (s Selection) IsClosed() bool {
	return s.Start != nil && s.End != nil
}

// Duration is the inclusive day count of a closed selection, 0 otherwise.
func (s Selection) Duration() int {
	if !s.IsClosed() {
		return 0
	}
	return Duration(*s.Start, *s.End)
}

// Clone returns a selection that shares no pointers with s.
func (s Selection) Clone() Selection {
	var out Selection
	if s.Start != nil {
		out.Start = datePtr(*s.Start)
	}
	if s.End != nil {
		out.End = datePtr(*s.End)
	}
	return out
}

// normalize restores the invariant on externally supplied selections.
func (s Selection) normalize() Selection {
	out := s.Clone()
	if out.Start == nil {
		out.End = nil
		return out
	}
	if out.End != nil && out.End.Before(*out.Start) {
		out.Start, out.End = out.End, out.Start
	}
	return out
}

// HandleDateClick advances the selection state machine by one click.
//
// An empty or closed selection restarts at date. An open selection is closed,
// swapping endpoints when date <= start. A closed range shorter than the
// aircraft's minimum lease clears the selection. Maximum lease and booked
// dates inside the range are only checked by ValidateRange.
func HandleDateClick(rules Rules, date civil.Date, sel Selection, aircraft *models.Aircraft) (Selection, error) {
	if date.Before(rules.Earliest) {
		return sel, &OutOfWindowError{Date: date, Earliest: rules.Earliest}
	}

	if !sel.IsOpen() {
		return Selection{Start: datePtr(date)}, nil
	}

	start := *sel.Start
	next := Selection{Start: datePtr(start), End: datePtr(date)}
	if !start.Before(date) {
		next = Selection{Start: datePtr(date), End: datePtr(start)}
	}

	if aircraft != nil {
		if d := next.Duration(); d < aircraft.MinLease {
			return Selection{}, &LeaseTooShortError{Duration: d, Min: aircraft.MinLease}
		}
	}
	return next, nil
}

// ValidateRange runs the submission-time checks and returns the inclusive duration.
// The first failing check wins; the order is fixed so callers can rely on it.
func ValidateRange(rules Rules, aircraft *models.Aircraft, start, end *civil.Date, today civil.Date) (int, error) {
	if start == nil || end == nil {
		return 0, ErrMissingDates
	}
	if start.Before(today) {
		return 0, ErrStartInPast
	}
	if !end.After(*start) {
		return 0, ErrEndNotAfterStart
	}

	duration := Duration(*start, *end)
	if aircraft != nil {
		if duration < aircraft.MinLease {
			return 0, &LeaseTooShortError{Duration: duration, Min: aircraft.MinLease}
		}
		if duration > aircraft.MaxLease {
			return 0, &LeaseTooLongError{Duration: duration, Max: aircraft.MaxLease}
		}
		if d, ok := aircraft.FirstBookedIn(*start, *end); ok {
			return 0, &DateConflictError{Date: d}
		}
	}

	if start.Before(rules.Earliest) {
		return 0, &OutOfWindowError{Date: *start, Earliest: rules.Earliest}
	}
	return duration, nil
}

func datePtr(d civil.Date) *civil.Date {
	return &d
}
