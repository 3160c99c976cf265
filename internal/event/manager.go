// Package event tracks blocking and informational events raised during
// execution and their resolutions.
//
// The manager has no visibility into sessions: pausing a project when a
// blocking event lands is the daemon's job, which keeps the two concerns
// decoupled and independently testable.
package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ferrors "github.com/p-blackswan/foreman/internal/errors"
)

// Type classifies an event. Blocking events require the owning project's
// session to pause until resolved; the other variants are informational.
type Type string

const (
	TypeBlocking Type = "blocking"
	TypeInfo     Type = "info"
	TypeProgress Type = "progress"
)

// Blocking reports whether the type requires a session pause.
func (t Type) Blocking() bool { return t == TypeBlocking }

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	switch t {
	case TypeBlocking, TypeInfo, TypeProgress:
		return true
	}
	return false
}

// Status is the lifecycle state of an event.
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// Event is one raised event. Content and Resolution are opaque to the core.
type Event struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	EventType  Type   `json:"event_type"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Status     Status `json:"status"`
	Resolution string `json:"resolution,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

// Manager is the daemon-owned collection of events across all projects.
type Manager struct {
	mu     sync.RWMutex
	events map[string]*Event
	order  []string
	logger zerolog.Logger
}

// NewManager creates an empty Manager.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		events: make(map[string]*Event),
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Add stores a new pending event and returns it with id and timestamp set.
func (m *Manager) Add(projectID string, eventType Type, title, content string) Event {
	evt := &Event{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		EventType: eventType,
		Title:     title,
		Content:   content,
		Status:    StatusPending,
		CreatedAt: time.Now().UnixMilli(),
	}

	m.mu.Lock()
	m.events[evt.ID] = evt
	m.order = append(m.order, evt.ID)
	m.mu.Unlock()

	m.logger.Info().
		Str("event_id", evt.ID).
		Str("project_id", projectID).
		Str("type", string(eventType)).
		Str("title", title).
		Msg("event raised")
	return *evt
}

// Get returns the event with the given id.
func (m *Manager) Get(id string) (Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	evt, ok := m.events[id]
	if !ok {
		return Event{}, ferrors.NotFound("event", id)
	}
	return *evt, nil
}

// Resolve transitions the named event from pending to resolved, storing the
// resolution text. Resolving an unknown id is a not-found error; resolving a
// resolved event is an invalid transition.
func (m *Manager) Resolve(id, resolution string) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	evt, ok := m.events[id]
	if !ok {
		return Event{}, ferrors.NotFound("event", id)
	}
	if evt.Status != StatusPending {
		return Event{}, ferrors.InvalidTransition("event", id, string(evt.Status), string(StatusResolved))
	}
	evt.Status = StatusResolved
	evt.Resolution = resolution

	m.logger.Info().Str("event_id", id).Msg("event resolved")
	return *evt, nil
}

// Pending returns all pending events across all projects, oldest first.
// Callers filter by project id as needed.
func (m *Manager) Pending() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Event
	for _, id := range m.order {
		if evt := m.events[id]; evt.Status == StatusPending {
			out = append(out, *evt)
		}
	}
	return out
}

// Snapshot returns all events, oldest first, for persistence.
func (m *Manager) Snapshot() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.events[id])
	}
	return out
}

// Restore replaces the manager contents with persisted records.
func (m *Manager) Restore(events []Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string]*Event, len(events))
	m.order = m.order[:0]
	for i := range events {
		evt := events[i]
		m.events[evt.ID] = &evt
		m.order = append(m.order, evt.ID)
	}
}
