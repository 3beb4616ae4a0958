// Package session provides in-memory intake session storage.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Elevated-Garage/contact-solomon/internal/domain"
)

// Store holds intake sessions for the lifetime of the process.
//
// Mutate is the only way to change a session: it runs fn while holding
// that session's lock, creating the session first if needed. Serializing
// whole turns per session key is what guarantees at-most-once summary
// delivery and last-write consistency when a client double-submits.
type Store interface {
	// Mutate runs fn against the session for id under the session lock,
	// creating the session if it does not exist. fn must not retain the
	// *domain.Session beyond the call.
	Mutate(ctx context.Context, id string, fn func(*domain.Session) error) error

	// Snapshot returns a copy of the session, or nil if it does not exist.
	// Photo bytes are shared with the live session; everything else is
	// deep-copied.
	Snapshot(id string) *domain.Session

	// Clear removes all state for a session.
	Clear(id string)

	// Len returns the number of live sessions.
	Len() int
}

type entry struct {
	mu   sync.Mutex
	sess *domain.Session
}

// MemoryStore implements Store with a process-local map. Sessions live
// until Clear or process restart; there is no eviction.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*entry)}
}

func (s *MemoryStore) ensure(id string) *entry {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return e
	}
	now := time.Now()
	e = &entry{sess: &domain.Session{
		ID:        id,
		Fields:    make(map[string]string),
		State:     domain.StateCollecting,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	s.entries[id] = e
	slog.Info("Intake session created", "session_id", id)
	return e
}

// Mutate runs fn under the per-session lock, creating the session if needed.
func (s *MemoryStore) Mutate(ctx context.Context, id string, fn func(*domain.Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := s.ensure(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.sess)
}

// Snapshot returns a copy of the session for read-only use.
func (s *MemoryStore) Snapshot(id string) *domain.Session {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cp := *e.sess
	cp.Transcript = append([]domain.Message(nil), e.sess.Transcript...)
	cp.Photos = append([]domain.Photo(nil), e.sess.Photos...)
	cp.Fields = make(map[string]string, len(e.sess.Fields))
	for k, v := range e.sess.Fields {
		cp.Fields[k] = v
	}
	return &cp
}

// Clear removes all state for a session.
func (s *MemoryStore) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		delete(s.entries, id)
		slog.Info("Intake session cleared", "session_id", id)
	}
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
