// Package session holds per-user authenticated provider sessions for the
// lifetime of the process. Nothing is persisted and nothing expires.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/m3rciful/numbot/bot/twilio"
)

// ErrNoSession is returned when an action requires a prior successful login.
var ErrNoSession = errors.New("session: no active session for user")

// Session binds a user to validated credentials and an authenticated client.
// It is created atomically on successful login and overwritten on re-login.
type Session struct {
	UserID     int64
	AccountSID string
	AuthToken  string
	Client     twilio.Client
	CreatedAt  time.Time
}

// Store is the credential store consulted before every provider call.
type Store interface {
	Get(userID int64) (*Session, error)
	Put(s *Session)
	Delete(userID int64)
	Len() int
}

// MemoryStore is the process-wide in-memory Store implementation.
// Safe for concurrent use; last write wins on re-login.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

// Get returns the session for userID or ErrNoSession.
func (s *MemoryStore) Get(userID int64) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Put stores the session, replacing any previous one for the same user.
func (s *MemoryStore) Put(sess *Session) {
	if sess == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = sess
}

// Delete removes the session for userID if present.
func (s *MemoryStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len reports the number of active sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
