package session

import (
	"context"
	"sync"
	"time"

	"github.com/loft/finassist/core"
)

// InMemoryStore is a volatile SessionStore implementation storing sessions in
// a process local map. It is safe for concurrent access. Each returned
// session is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
	now      func() time.Time
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*core.Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a clone of the session for identity.
func (s *InMemoryStore) Get(_ context.Context, identity string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[identity]
	if !ok {
		return nil, core.ErrSessionNotFound
	}

	return sess.Clone(), nil
}

// Create registers an empty session for identity. An existing session is
// returned unchanged.
func (s *InMemoryStore) Create(_ context.Context, identity string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[identity]; ok {
		return sess.Clone(), nil
	}

	sess := core.NewSession(identity)
	sess.Created, sess.Updated = s.now(), s.now()
	s.sessions[identity] = sess

	return sess.Clone(), nil
}

// Commit appends turns to the stored transcript.
func (s *InMemoryStore) Commit(_ context.Context, identity string, turns []core.Turn, lastActiveAgent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[identity]
	if !ok {
		return core.ErrSessionNotFound
	}

	sess.Transcript = sess.Transcript.Append(turns...)
	if lastActiveAgent != "" {
		sess.LastActiveAgent = lastActiveAgent
	}
	sess.Updated = s.now()

	return nil
}

// Delete removes the session for identity if present.
func (s *InMemoryStore) Delete(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, identity)

	return nil
}

// Idle lists identities not updated since cutoff.
func (s *InMemoryStore) Idle(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for id, sess := range s.sessions {
		if sess.Updated.Before(cutoff) {
			out = append(out, id)
		}
	}

	return out, nil
}

// Len returns the number of stored sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
