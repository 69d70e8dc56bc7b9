// Package session keeps one calculator engine per client and owns the timer
// that clears the Error display.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/scicalc/internal/keymap"
	"github.com/ternarybob/scicalc/internal/logger"
	"github.com/ternarybob/scicalc/pkg/calc"
)

var (
	// ErrNotFound is returned for an unknown session ID.
	ErrNotFound = errors.New("session not found")

	// ErrUnboundKey is returned for a key with no binding in the keymap.
	ErrUnboundKey = errors.New("key not bound")
)

// Snapshot is the state a renderer needs after a transition.
type Snapshot struct {
	ID           string       `json:"id"`
	State        calc.State   `json:"state"`
	Display      calc.Display `json:"display"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// Session serialises transitions on one engine.
//
// When a transition leaves the engine in the Error state the session arms a
// timer that clears the engine after the error display duration. Any later
// transition disarms it first, so a stale timer never clears newer state.
type Session struct {
	id           string
	errorDisplay time.Duration

	mu         sync.Mutex
	engine     *calc.Engine
	lastUsed   time.Time
	errTimer   *time.Timer
	generation uint64
	closed     bool
}

func newSession(id string, errorDisplay time.Duration, now time.Time) *Session {
	return &Session{
		id:           id,
		errorDisplay: errorDisplay,
		engine:       calc.New(),
		lastUsed:     now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the current state without changing it.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Apply drives one transition. Domain errors are not returned: they show up
// as the Error state and ErrorMessage in the snapshot. The returned error is
// set only for input that cannot be applied.
func (s *Session) Apply(in calc.Input) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.snapshotLocked(), ErrNotFound
	}

	s.lastUsed = time.Now()
	s.disarmLocked()

	err := calc.Apply(s.engine, in)

	// Rejected input leaves an Error display in place, so the clear is
	// re-armed either way.
	if s.engine.InError() {
		s.armLocked()
	}

	if err != nil && !calc.IsDomainError(err) {
		return s.snapshotLocked(), err
	}
	if err != nil {
		logger.GetLogger().Debug().Str("session", s.id).Str("input", in.String()).Err(err).Msg("Domain error")
	}
	return s.snapshotLocked(), nil
}

// Press looks key up in km and applies the bound input.
func (s *Session) Press(km *keymap.Keymap, key string) (Snapshot, error) {
	in, ok := km.Lookup(key)
	if !ok {
		return s.Snapshot(), fmt.Errorf("%w: %q", ErrUnboundKey, key)
	}
	return s.Apply(in)
}

// LastUsed returns the time of the last transition.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// close stops the error timer; later transitions fail with ErrNotFound.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
	s.closed = true
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:           s.id,
		State:        s.engine.State(),
		Display:      s.engine.Display(),
		ErrorMessage: s.engine.ErrorMessage(),
	}
}

func (s *Session) armLocked() {
	if s.errorDisplay <= 0 {
		return
	}

	gen := s.generation
	s.errTimer = time.AfterFunc(s.errorDisplay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		// A transition after arming bumped the generation.
		if s.generation != gen || s.closed {
			return
		}
		s.engine.Clear()
		s.errTimer = nil
		logger.GetLogger().Debug().Str("session", s.id).Msg("Error display cleared")
	})
}

func (s *Session) disarmLocked() {
	s.generation++
	if s.errTimer != nil {
		s.errTimer.Stop()
		s.errTimer = nil
	}
}
