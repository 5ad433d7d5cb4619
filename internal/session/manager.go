package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/katatrina/roxot-collector/internal/adapter"
	"github.com/katatrina/roxot-collector/internal/clock"
	"github.com/katatrina/roxot-collector/internal/metric"
	"github.com/katatrina/roxot-collector/internal/storage"
	"github.com/rs/zerolog/log"
)

var ErrSessionNotFound = errors.New("session not found")

// StoreFactory returns the store scoped to one visitor.
type StoreFactory func(visitorID string) storage.Store

// Session is one enabled adapter plus its bookkeeping.
type Session struct {
	ID        string
	Code      string
	VisitorID string
	Adapter   adapter.Adapter

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Manager owns the live adapter sessions of the process.
type Manager struct {
	registry *adapter.Registry
	stores   StoreFactory
	deps     adapter.Deps // template, Store and SessionID are filled per session
	clock    clock.Clock
	metrics  *metric.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a manager. deps is copied into every new session.
func NewManager(registry *adapter.Registry, stores StoreFactory, deps adapter.Deps) *Manager {
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewSystem()
		deps.Clock = clk
	}

	return &Manager{
		registry: registry,
		stores:   stores,
		deps:     deps,
		clock:    clk,
		metrics:  deps.Metrics,
		sessions: make(map[string]*Session),
	}
}

// Open enables the adapter registered under code for one page view. A
// missing visitor id gets a fresh one.
func (m *Manager) Open(ctx context.Context, code string, req adapter.EnableRequest) (*Session, error) {
	factory, err := m.registry.Lookup(code)
	if err != nil {
		return nil, err
	}

	if req.VisitorID == "" {
		req.VisitorID = uuid.NewString()
	}

	deps := m.deps
	deps.SessionID = uuid.NewString()
	deps.Store = m.stores(req.VisitorID)

	a := factory(deps)
	if err = a.Enable(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to enable %s adapter: %w", code, err)
	}

	s := &Session{
		ID:        deps.SessionID,
		Code:      code,
		VisitorID: req.VisitorID,
		Adapter:   a,
		lastSeen:  m.clock.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	total := len(m.sessions)
	m.mu.Unlock()

	m.setActive(total)
	log.Info().Str("session_id", s.ID).Str("code", code).Str("visitor_id", s.VisitorID).
		Int("active_sessions", total).Msg("session opened")
	return s, nil
}

// Get returns a session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.touch(m.clock.Now())
	return s, nil
}

// Close disables and forgets a session.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	total := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	m.setActive(total)

	if err := s.Adapter.Disable(ctx); err != nil {
		return fmt.Errorf("failed to disable session %s: %w", id, err)
	}

	log.Info().Str("session_id", id).Int("active_sessions", total).Msg("session closed")
	return nil
}

// SweepIdle closes sessions unused for longer than idle.
func (m *Manager) SweepIdle(ctx context.Context, idle time.Duration) int {
	cutoff := m.clock.Now().Add(-idle)

	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	var closed int
	for _, id := range stale {
		if err := m.Close(ctx, id); err != nil {
			if !errors.Is(err, ErrSessionNotFound) {
				log.Warn().Err(err).Str("session_id", id).Msg("failed to close idle session")
			}
			continue
		}
		closed++
	}

	if closed > 0 {
		log.Info().Int("closed", closed).Dur("idle_timeout", idle).Msg("idle sessions swept")
	}
	return closed
}

// CloseAll disables every session, flushing what can be flushed.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		if err := m.Close(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Warn().Err(err).Str("session_id", id).Msg("failed to close session")
		}
	}
}

// Len reports how many sessions are open.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) setActive(total int) {
	if m.metrics != nil {
		m.metrics.ActiveSessions.Set(float64(total))
	}
}
