package calibration

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxSessions bounds how many browsers can hold a pending selection.
const DefaultMaxSessions = 64

// Session holds one browser's pending selection between upload and save.
type Session struct {
	ID string

	mu       sync.Mutex
	pending  *Rect
	lastSeen time.Time
}

// SetPending records the latest selection, replacing any earlier one.
func (s *Session) SetPending(r Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &r
}

// Pending returns the selection awaiting save.
func (s *Session) Pending() (Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Rect{}, false
	}
	return *s.pending, true
}

// Clear drops the pending selection.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Sessions is a registry of calibration sessions keyed by id. When full,
// the least recently used session is evicted.
type Sessions struct {
	mu   sync.Mutex
	byID map[string]*Session
	max  int
	now  func() time.Time
}

// NewSessions creates a registry holding at most max sessions.
func NewSessions(max int) *Sessions {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &Sessions{
		byID: make(map[string]*Session),
		max:  max,
		now:  time.Now,
	}
}

// Get returns the session for id, creating a new one with a fresh id when
// id is empty or unknown.
func (r *Sessions) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.byID[id]; ok {
		s.lastSeen = r.now()
		return s
	}

	if len(r.byID) >= r.max {
		r.evictOldest()
	}
	s := &Session{ID: uuid.NewString(), lastSeen: r.now()}
	r.byID[s.ID] = s
	return s
}

// Lookup returns an existing session without creating one.
func (r *Sessions) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if ok {
		s.lastSeen = r.now()
	}
	return s, ok
}

// Len returns the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *Sessions) evictOldest() {
	var oldest *Session
	for _, s := range r.byID {
		if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
			oldest = s
		}
	}
	if oldest != nil {
		delete(r.byID, oldest.ID)
	}
}
