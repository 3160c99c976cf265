// Package registry tracks the projects known to the daemon.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ferrors "github.com/p-blackswan/foreman/internal/errors"
)

// Project is a registered project workspace.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	CreatedAt int64  `json:"created_at"`
}

// Registry is the daemon-owned collection of registered projects.
// All access goes through its methods; callers never see internal maps.
type Registry struct {
	mu       sync.RWMutex
	projects map[string]*Project
	order    []string // registration order, for stable listing
	logger   zerolog.Logger
}

// New creates an empty Registry.
func New(logger zerolog.Logger) *Registry {
	return &Registry{
		projects: make(map[string]*Project),
		logger:   logger.With().Str("component", "registry").Logger(),
	}
}

// Register allocates a new stable id, stores the project, and returns a copy.
// No uniqueness constraint is enforced on path; callers are expected to avoid
// duplicate registration.
func (r *Registry) Register(path, name string) Project {
	p := &Project{
		ID:        uuid.New().String(),
		Name:      name,
		Path:      path,
		CreatedAt: time.Now().UnixMilli(),
	}

	r.mu.Lock()
	r.projects[p.ID] = p
	r.order = append(r.order, p.ID)
	r.mu.Unlock()

	r.logger.Info().Str("project_id", p.ID).Str("name", name).Str("path", path).Msg("project registered")
	return *p
}

// Get returns the project with the given id.
func (r *Registry) Get(id string) (Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return Project{}, ferrors.NotFound("project", id)
	}
	return *p, nil
}

// Rename updates a project's display name. Path and id are immutable.
func (r *Registry) Rename(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return ferrors.NotFound("project", id)
	}
	p.Name = name
	return nil
}

// List returns all projects in registration order.
func (r *Registry) List() []Project {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Project, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.projects[id])
	}
	return out
}

// Snapshot returns the registry contents for persistence.
func (r *Registry) Snapshot() []Project {
	return r.List()
}

// Restore replaces the registry contents with the given records.
// Used once at startup, before the polling loop begins.
func (r *Registry) Restore(projects []Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects = make(map[string]*Project, len(projects))
	r.order = r.order[:0]
	for i := range projects {
		p := projects[i]
		r.projects[p.ID] = &p
		r.order = append(r.order, p.ID)
	}
}
