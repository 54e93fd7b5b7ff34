// Package session stores booking sessions between HTTP requests.
package session

import (
	"context"
	"sync"
	"time"

	"aerolease/internal/booking"
)

type entry struct {
	session   *booking.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory with an idle timeout.
type MemoryStore struct {
	sessions map[string]entry
	mu       sync.RWMutex
	timeout  time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a new session store.
func NewMemoryStore(timeout time.Duration) *MemoryStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &MemoryStore{
		sessions: make(map[string]entry),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Get returns a copy of the session. Expired sessions are not found.
func (ms *MemoryStore) Get(_ context.Context, id string) (*booking.Session, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	e, ok := ms.sessions[id]
	if !ok || ms.now().After(e.expiresAt) {
		return nil, booking.ErrSessionNotFound
	}
	return e.session.Clone(), nil
}

// Save stores a copy of s and extends its lifetime.
func (ms *MemoryStore) Save(_ context.Context, s *booking.Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[s.ID] = entry{session: s.Clone(), expiresAt: ms.now().Add(ms.timeout)}
	return nil
}

// Delete removes a session.
func (ms *MemoryStore) Delete(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.sessions)
}

// Cleanup removes expired sessions.
func (ms *MemoryStore) Cleanup() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	removed := 0
	for id, e := range ms.sessions {
		if now.After(e.expiresAt) {
			delete(ms.sessions, id)
			removed++
		}
	}
	return removed
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (ms *MemoryStore) RunCleanup(ctx context.Context, interval time.Duration, onRemoved func(int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := ms.Cleanup(); n > 0 && onRemoved != nil {
				onRemoved(n)
			}
		}
	}
}
