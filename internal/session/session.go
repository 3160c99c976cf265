// Package session tracks whether a project's execution is paused and why.
package session

import (
	"sync"

	"github.com/rs/zerolog"

	ferrors "github.com/p-blackswan/foreman/internal/errors"
)

// Session is the per-project pause state. PauseReason is either empty (not
// paused) or the id of exactly one outstanding blocking event.
type Session struct {
	ProjectID   string `json:"project_id"`
	PauseReason string `json:"pause_reason,omitempty"`
}

// Paused reports whether the session is paused.
func (s Session) Paused() bool { return s.PauseReason != "" }

// Manager is the daemon-owned session map, created lazily per project.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   zerolog.Logger
}

// NewManager creates an empty Manager.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger.With().Str("component", "sessions").Logger(),
	}
}

// GetOrCreate returns the session for the project, creating a fresh unpaused
// one if none exists.
func (m *Manager) GetOrCreate(projectID string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[projectID]
	if !ok {
		s = &Session{ProjectID: projectID}
		m.sessions[projectID] = s
	}
	return *s
}

// Pause records the blocking event id as the project's pause reason.
func (m *Manager) Pause(projectID, eventID string) {
	m.mu.Lock()
	s, ok := m.sessions[projectID]
	if !ok {
		s = &Session{ProjectID: projectID}
		m.sessions[projectID] = s
	}
	s.PauseReason = eventID
	m.mu.Unlock()

	m.logger.Info().Str("project_id", projectID).Str("pause_reason", eventID).Msg("session paused")
}

// ClearPause clears the pause reason of any session whose reason equals the
// given event id, and reports whether one was cleared.
func (m *Manager) ClearPause(eventID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.PauseReason == eventID {
			s.PauseReason = ""
			m.logger.Info().Str("project_id", s.ProjectID).Str("event_id", eventID).Msg("session resumed")
			return true
		}
	}
	return false
}

// Get returns the session for the project without creating one.
func (m *Manager) Get(projectID string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[projectID]
	if !ok {
		return Session{}, ferrors.NotFound("session", projectID)
	}
	return *s, nil
}

// Snapshot returns all sessions for persistence. Order is not significant;
// sessions are keyed by project id on restore.
func (m *Manager) Snapshot() []Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out
}

// Restore replaces the session map with persisted records.
func (m *Manager) Restore(sessions []Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*Session, len(sessions))
	for i := range sessions {
		s := sessions[i]
		m.sessions[s.ProjectID] = &s
	}
}
