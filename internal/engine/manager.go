// Package engine manages the lifecycle of tutoring sessions. Each session
// owns one conversation orchestrator; the manager creates them, looks them
// up for the HTTP layer, and expires the inactive ones.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rachitsh/studybuddy/internal/conversation"
	"github.com/rachitsh/studybuddy/internal/domain"
	"github.com/rachitsh/studybuddy/internal/history"
	"github.com/rachitsh/studybuddy/internal/observability"
	"github.com/rachitsh/studybuddy/internal/tutor"
)

// Session pairs an orchestrator with its lifecycle metadata. The metadata
// fields are guarded by the manager mutex; the orchestrator is safe for
// concurrent use on its own.
type Session struct {
	ID             string
	Orchestrator   *conversation.Orchestrator
	StartedAt      time.Time
	LastActivityAt time.Time
	ended          bool
}

// ManagerConfig carries the shared dependencies every session is built from.
type ManagerConfig struct {
	Tutor             tutor.Client
	History           history.Store
	Metrics           *observability.Metrics
	Logger            zerolog.Logger
	InactivityTimeout time.Duration
	ClearOnLogout     bool
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      ManagerConfig
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.InactivityTimeout <= 0 {
		cfg.InactivityTimeout = 30 * time.Minute
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
	}
}

// Create builds a new session with a fresh timeline and default
// language/mode configuration.
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	orch := conversation.NewOrchestrator(
		conversation.OrchestratorConfig{
			SessionID:     id,
			ClearOnLogout: m.cfg.ClearOnLogout,
		},
		conversation.NewStore(),
		conversation.NewSessionConfig(),
		m.cfg.Tutor,
		m.cfg.History,
		m.cfg.Metrics,
		m.cfg.Logger,
	)

	now := time.Now().UTC()
	s := &Session{
		ID:             id,
		Orchestrator:   orch,
		StartedAt:      now,
		LastActivityAt: now,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.cfg.Metrics.ActiveSessions.Inc()
	m.cfg.Metrics.SessionEvents.WithLabelValues("created").Inc()
	return s
}

// Get returns the live session and refreshes its activity timestamp.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.ended {
		return nil, domain.ErrSessionNotFound
	}
	s.LastActivityAt = time.Now().UTC()
	return s, nil
}

// End removes the session. The orchestrator's timeline is dropped with it;
// anything worth keeping already went through the history store.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s.ended {
		m.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	s.ended = true
	delete(m.sessions, id)
	m.mu.Unlock()

	m.cfg.Metrics.ActiveSessions.Dec()
	m.cfg.Metrics.SessionEvents.WithLabelValues("ended").Inc()
	return nil
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartJanitor spawns a goroutine that expires sessions with no activity
// for the configured timeout; the goroutine exits when ctx is cancelled.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) expireInactive() {
	now := time.Now().UTC()
	var expired []string

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastActivityAt) < m.cfg.InactivityTimeout {
			continue
		}
		s.ended = true
		delete(m.sessions, id)
		expired = append(expired, id)
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.cfg.Metrics.ActiveSessions.Dec()
		m.cfg.Metrics.SessionEvents.WithLabelValues("expired").Inc()
		m.cfg.Logger.Info().Str("session_id", id).Msg("session expired after inactivity")
	}
}
