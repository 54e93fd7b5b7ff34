package booking

import "fmt"

// LeaseType is the commercial form of the lease.
type LeaseType string

const (
	LeaseDry  LeaseType = "dry"
	LeaseWet  LeaseType = "wet"
	LeaseACMI LeaseType = "acmi"
)

// DefaultLeaseType is preselected when a session opens.
const DefaultLeaseType = LeaseDry

var leaseLabels = map[LeaseType]string{
	LeaseDry:  "Dry Lease",
	LeaseWet:  "Wet Lease",
	LeaseACMI: "ACMI",
}

// Valid reports whether l is a known lease type.
func (l LeaseType) Valid() bool {
	_, ok := leaseLabels[l]
	return ok
}

// Label is the display text; unknown values are shown as-is.
func (l LeaseType) Label() string {
	if label, ok := leaseLabels[l]; ok {
		return label
	}
	return string(l)
}

// ParseLeaseType validates a submitted lease type. Empty input selects the default.
func ParseLeaseType(s string) (LeaseType, error) {
	if s == "" {
		return DefaultLeaseType, nil
	}
	l := LeaseType(s)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLeaseType, s)
	}
	return l, nil
}
