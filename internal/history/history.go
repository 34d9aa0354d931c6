// Package history keeps the per-session chat transcript in process memory.
package history

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session has no recorded turns.
var ErrSessionNotFound = errors.New("session not found")

// Turn is one user message and the reply it received.
type Turn struct {
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	Timestamp   time.Time `json:"timestamp"`
}

// Stats is a point-in-time snapshot of the store size.
type Stats struct {
	Sessions int `json:"sessions"`
	Turns    int `json:"turns"`
}

// Store maps session ids to their ordered turns. All methods are safe for
// concurrent use; every operation runs under a single store-wide lock, so an
// append racing a clear either lands before it or starts a fresh history.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	newID    func() string
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string][]Turn),
		newID:    uuid.NewString,
	}
}

// ResolveOrCreate returns sessionID unchanged when it is set, otherwise a
// fresh id that has no turns in the store.
func (s *Store) ResolveOrCreate(sessionID string) string {
	if sessionID != "" {
		return sessionID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for {
		id := s.newID()
		if _, taken := s.sessions[id]; !taken {
			return id
		}
	}
}

func (s *Store) Append(sessionID string, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], turn)
}

// Get returns a copy of the session's turns in append order.
func (s *Store) Get(sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return slices.Clone(turns), nil
}

func (s *Store) Clear(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Sessions: len(s.sessions)}
	for _, turns := range s.sessions {
		st.Turns += len(turns)
	}
	return st
}
