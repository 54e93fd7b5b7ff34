package models

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
)

// Aircraft is a leasable airframe with its booked-date blacklist and lease bounds.
// It is reference data: once constructed it is never mutated.
type Aircraft struct {
	ID       string
	Name     string
	MinLease int // days, inclusive of both endpoints
	MaxLease int // days

	booked map[civil.Date]struct{}
}

// NewAircraft validates the lease bounds and builds an immutable aircraft.
// Duplicate booked dates are collapsed.
func NewAircraft(id, name string, minLease, maxLease int, booked []civil.Date) (*Aircraft, error) {
	if id == "" {
		return nil, fmt.Errorf("aircraft id is required")
	}
	if minLease < 1 {
		return nil, fmt.Errorf("aircraft %s: min lease must be at least 1 day, got %d", id, minLease)
	}
	if maxLease < minLease {
		return nil, fmt.Errorf("aircraft %s: max lease %d is below min lease %d", id, maxLease, minLease)
	}
	if name == "" {
		name = id
	}

	set := make(map[civil.Date]struct{}, len(booked))
	for _, d := range booked {
		if !d.IsValid() {
			return nil, fmt.Errorf("aircraft %s: invalid booked date %v", id, d)
		}
		set[d] = struct{}{}
	}

	return &Aircraft{
		ID:       id,
		Name:     name,
		MinLease: minLease,
		MaxLease: maxLease,
		booked:   set,
	}, nil
}

// IsBooked reports whether the aircraft is unavailable on d.
func (a *Aircraft) IsBooked(d civil.Date) bool {
	if a == nil {
		return false
	}
	_, ok := a.booked[d]
	return ok
}

// FirstBookedIn returns the earliest booked date inside [start, end].
func (a *Aircraft) FirstBookedIn(start, end civil.Date) (civil.Date, bool) {
	if a == nil || len(a.booked) == 0 {
		return civil.Date{}, false
	}
	for d := start; !d.After(end); d = d.AddDays(1) {
		if a.IsBooked(d) {
			return d, true
		}
	}
	return civil.Date{}, false
}

// BookedDates returns the booked dates in ascending order.
func (a *Aircraft) BookedDates() []civil.Date {
	out := make([]civil.Date, 0, len(a.booked))
	for d := range a.booked {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
