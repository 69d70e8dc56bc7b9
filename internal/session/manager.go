package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/scicalc/internal/config"
	"github.com/ternarybob/scicalc/internal/logger"
)

// Options configures a Manager.
type Options struct {
	// ErrorDisplay is how long a session shows Error before clearing itself.
	// Zero disables the automatic clear.
	ErrorDisplay time.Duration

	// TTL drops sessions idle for longer than this. Zero keeps them.
	TTL time.Duration
}

// OptionsFromConfig maps the calculator config section to Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ErrorDisplay: cfg.Calculator.ErrorDisplay,
		TTL:          cfg.Calculator.SessionTTL,
	}
}

// Manager owns the live sessions.
type Manager struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session in the calculator startup state.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), m.opts.ErrorDisplay, time.Now())

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	logger.GetLogger().Debug().Str("session", s.id).Msg("Session created")
	return s
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Remove drops a session and stops its timer.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.close()
	return nil
}

// IDs returns the IDs of all live sessions, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle since before now minus the TTL and returns how
// many were dropped.
func (m *Manager) Sweep(now time.Time) int {
	if m.opts.TTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.opts.TTL)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.LastUsed().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		logger.GetLogger().Info().Msgf("Expired %d idle sessions", len(expired))
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	if m.opts.TTL <= 0 {
		return
	}

	interval := m.opts.TTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Close drops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
