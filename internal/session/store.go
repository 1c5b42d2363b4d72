// Package session holds the volatile per-user conversation state. One
// mutable record exists per user; a record older than the configured window
// is treated as absent by all readers, so no background sweep is required.
// State is intentionally not durable: a process restart drops all sessions.
package session

import (
	"sync"
	"time"
)

// Transform is a selected transformation: a catalog label (or a marker for
// free-form input) plus the instruction text sent to the generation service.
type Transform struct {
	Label  string
	Prompt string
}

// Session is the single in-flight request context for one user.
//
// Invariants: at most one productive context is active at a time, either an
// uploaded image awaiting an instruction (PendingImageID set) or a chosen
// transformation awaiting an image (SelectedTransform set). CreatedAt drives
// expiry. The payment fields correlate an out-of-band confirmation callback
// back to this user: EntitlementGranted authorizes exactly one generation
// without touching the daily counter.
type Session struct {
	PendingImageID     string
	SelectedTransform  *Transform
	CreatedAt          time.Time
	PaymentOrderID     string
	EntitlementGranted bool
	AwaitingUnlock     bool
}

// HasImage reports whether an uploaded image is recorded.
func (s *Session) HasImage() bool { return s != nil && s.PendingImageID != "" }

// HasTransform reports whether an instruction has been chosen.
func (s *Session) HasTransform() bool { return s != nil && s.SelectedTransform != nil }

// Store is an in-memory session store with read-time expiry.
// It is safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	m   map[string]*Session
	ttl time.Duration

	// now is an injectable clock for tests.
	now func() time.Time
}

// NewStore returns a Store whose sessions expire ttl after creation.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		m:   make(map[string]*Session),
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the user's session, or nil when none exists or the stored one
// has expired. Expired entries are removed opportunistically.
func (st *Store) Get(userID string) *Session {
	st.mu.RLock()
	s, ok := st.m[userID]
	st.mu.RUnlock()
	if !ok {
		return nil
	}
	if st.now().Sub(s.CreatedAt) >= st.ttl {
		st.mu.Lock()
		// Re-check under the write lock; a fresh session may have replaced it.
		if cur, ok := st.m[userID]; ok && cur == s {
			delete(st.m, userID)
		}
		st.mu.Unlock()
		return nil
	}
	return s
}

// Put stores (or replaces) the user's session. When CreatedAt is zero it is
// stamped with the current time.
func (st *Store) Put(userID string, s *Session) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = st.now()
	}
	st.mu.Lock()
	st.m[userID] = s
	st.mu.Unlock()
}

// Delete removes the user's session. Deleting an absent session is a no-op.
func (st *Store) Delete(userID string) {
	st.mu.Lock()
	delete(st.m, userID)
	st.mu.Unlock()
}

// Len returns the number of stored sessions, including ones that would read
// as expired. Used by diagnostics only.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.m)
}

// SetClock replaces the time source. Tests only.
func (st *Store) SetClock(now func() time.Time) { st.now = now }
