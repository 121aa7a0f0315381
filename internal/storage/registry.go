package storage

import (
	"sync"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
)

// SessionRegistry is the single authority for "is this user mid-quiz".
// It maps a user ID to that user's session and guarantees at most one
// entry per user at any time. Completed and aborted sessions stay
// registered until replaced, so their outcome log can back the
// explanation browser.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[int64]*entities.Session
}

// NewSessionRegistry creates an empty SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[int64]*entities.Session),
	}
}

// Get returns the user's session, or nil when none is registered.
func (r *SessionRegistry) Get(userID int64) *entities.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[userID]
}

// Put registers a session for the user and returns the session it replaced,
// if any, so the caller can abort it.
func (r *SessionRegistry) Put(userID int64, s *entities.Session) *entities.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.sessions[userID]
	r.sessions[userID] = s
	return prev
}

// Remove deletes the user's session and returns it, or nil when none existed.
func (r *SessionRegistry) Remove(userID int64) *entities.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[userID]
	delete(r.sessions, userID)
	return s
}

// HasActive reports whether the user has a session that still accepts events.
func (r *SessionRegistry) HasActive(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.sessions[userID]
	return s != nil && s.IsActive()
}

// Len returns the number of registered sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
