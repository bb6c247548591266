package core

import (
	"context"
	"time"
)

// Session is the per-identity conversation record: a thread id, the
// append-only transcript and the agent that produced the last reply.
//
// Contract:
//   - Sessions handed out by a SessionStore are snapshots; mutating them does
//     not affect the store until Commit
//   - Transcript only grows through SessionStore.Commit
type Session struct {
	ThreadID        string     `json:"thread_id"`
	Identity        string     `json:"identity"`
	Transcript      Transcript `json:"transcript"`
	LastActiveAgent string     `json:"last_active_agent,omitempty"`
	Created         time.Time  `json:"created"`
	Updated         time.Time  `json:"updated"`
}

// NewSession creates an empty session for identity with a fresh thread id.
func NewSession(identity string) *Session {
	now := time.Now().UTC()
	return &Session{
		ThreadID:   NewID(),
		Identity:   identity,
		Transcript: Transcript{},
		Created:    now,
		Updated:    now,
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	c.Transcript = s.Transcript.Clone()
	return &c
}

// SessionStore persists sessions keyed by sender identity. Implementations
// must be safe for concurrent use; per-identity write ordering is the
// caller's responsibility.
type SessionStore interface {
	// Get returns a snapshot of the session or ErrSessionNotFound.
	Get(ctx context.Context, identity string) (*Session, error)
	// Create registers a new empty session for identity, replacing none.
	Create(ctx context.Context, identity string) (*Session, error)
	// Commit appends turns to the transcript and records the last active agent.
	Commit(ctx context.Context, identity string, turns []Turn, lastActiveAgent string) error
	// Delete removes the session if present.
	Delete(ctx context.Context, identity string) error
	// Idle lists identities whose sessions were last updated before cutoff.
	Idle(ctx context.Context, cutoff time.Time) ([]string, error)
}
