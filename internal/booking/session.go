package booking

import (
	"context"
	"time"

	"aerolease/internal/calendar"
)

// Session is the stored state of one open booking modal.
type Session struct {
	ID         string            `json:"id"`
	Step       Step              `json:"step"`
	AircraftID string            `json:"aircraft_id,omitempty"`
	LeaseType  LeaseType         `json:"lease_type"`
	Calendar   calendar.Snapshot `json:"calendar"`
	StartedAt  time.Time         `json:"started_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	out := *s
	out.Calendar.Selection = s.Calendar.Selection.Clone()
	return &out
}

// Store keeps sessions between requests. Get returns ErrSessionNotFound for
// unknown or expired ids.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Sink receives accepted booking requests.
type Sink interface {
	Submit(ctx context.Context, req *Request) error
}
