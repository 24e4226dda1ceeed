// Package store persists generation sessions as human-inspectable JSON
// files, one directory per session, published atomically.
package store

import (
	"time"

	"inkforge/content"
)

// Recorder receives every attempt as it completes and the session exactly
// once when it reaches a terminal state. The orchestrator is the sole
// caller; it invokes Finalize on every exit path, including cancellation.
type Recorder interface {
	// Begin registers a new session before its first attempt.
	Begin(sess *content.Session) error
	// Record appends one attempt to the session's log.
	Record(sessionID string, att content.Attempt) error
	// Finalize writes the terminal content and status.
	Finalize(sess *content.Session) error
}

// Reader is the inspection side of the session log.
type Reader interface {
	ListSessions() ([]SessionInfo, error)
	Load(sessionID string) (*content.Session, error)
	// PurgeOlderThan removes whole sessions older than the duration and
	// returns how many were removed. Sessions are never partially purged.
	PurgeOlderThan(d time.Duration) (int, error)
}

// SessionInfo is a cheap listing entry derived without loading attempts.
type SessionInfo struct {
	ID        string         `json:"id"`
	Topic     string         `json:"topic"`
	Status    content.Status `json:"status"`
	StartedAt time.Time      `json:"started_at"`
}

// Nop is a Recorder that discards everything; used in tests and when
// persistence is disabled.
type Nop struct{}

func (Nop) Begin(*content.Session) error         { return nil }
func (Nop) Record(string, content.Attempt) error { return nil }
func (Nop) Finalize(*content.Session) error      { return nil }
