package mgmt

import (
	"github.com/p-blackswan/foreman/internal/event"
	"github.com/p-blackswan/foreman/internal/registry"
	"github.com/p-blackswan/foreman/internal/session"
	"github.com/p-blackswan/foreman/internal/workqueue"
)

// ProblemDetail is an RFC 7807 error response body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// RegisterProjectRequest is the body of POST /api/v1/projects.
type RegisterProjectRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// ProjectResponse wraps a single project.
type ProjectResponse struct {
	Project registry.Project `json:"project"`
}

// ProjectListResponse wraps all registered projects.
type ProjectListResponse struct {
	Projects []registry.Project `json:"projects"`
	Total    int                `json:"total"`
}

// AddItemRequest is the body of POST /api/v1/projects/:id/items.
type AddItemRequest struct {
	Content  string `json:"content"`
	Priority string `json:"priority"`
}

// ItemResponse wraps a single work item.
type ItemResponse struct {
	Item workqueue.WorkItem `json:"item"`
}

// ItemListResponse wraps a project's full queue.
type ItemListResponse struct {
	Items []workqueue.WorkItem `json:"items"`
	Total int                  `json:"total"`
}

// CompleteItemRequest is the body of POST /api/v1/items/:id/complete.
type CompleteItemRequest struct {
	Result string `json:"result"`
}

// RaiseEventRequest is the body of POST /api/v1/events.
type RaiseEventRequest struct {
	ProjectID string `json:"project_id"`
	EventType string `json:"event_type"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// EventResponse wraps a single event.
type EventResponse struct {
	Event event.Event `json:"event"`
}

// EventListResponse wraps pending events.
type EventListResponse struct {
	Events []event.Event `json:"events"`
	Total  int           `json:"total"`
}

// ResolveEventRequest is the body of POST /api/v1/events/:id/resolve.
type ResolveEventRequest struct {
	Resolution string `json:"resolution"`
}

// SessionResponse wraps a project session.
type SessionResponse struct {
	Session session.Session `json:"session"`
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	State         string `json:"state"`
	Projects      int    `json:"projects"`
	PendingEvents int    `json:"pending_events"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
