package mgmt

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/foreman/internal/daemon"
	ferrors "github.com/p-blackswan/foreman/internal/errors"
	"github.com/p-blackswan/foreman/internal/event"
	"github.com/p-blackswan/foreman/internal/health"
	"github.com/p-blackswan/foreman/internal/registry"
	"github.com/p-blackswan/foreman/internal/requestid"
	"github.com/p-blackswan/foreman/internal/workqueue"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	daemon    *daemon.Daemon
	checker   *health.Checker
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(d *daemon.Daemon, checker *health.Checker, logger zerolog.Logger) *Handlers {
	return &Handlers{
		daemon:    d,
		checker:   checker,
		logger:    logger.With().Str("component", "handlers").Logger(),
		startTime: time.Now(),
	}
}

// RegisterProject handles POST /api/v1/projects.
func (h *Handlers) RegisterProject(c *fiber.Ctx) error {
	var req RegisterProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	if req.Path == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_path", "Bad Request",
			"Project path is required")
	}
	if req.Name == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_name", "Bad Request",
			"Project name is required")
	}

	proj := h.daemon.RegisterProject(req.Path, req.Name)
	return c.Status(fiber.StatusCreated).JSON(ProjectResponse{Project: proj})
}

// ListProjects handles GET /api/v1/projects.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	projects := h.daemon.ListProjects()
	if projects == nil {
		projects = []registry.Project{}
	}
	return c.JSON(ProjectListResponse{Projects: projects, Total: len(projects)})
}

// GetProject handles GET /api/v1/projects/:id.
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	id := c.Params("id")
	proj, err := h.daemon.GetProject(id)
	if err != nil {
		return h.domainError(c, err)
	}
	return c.JSON(ProjectResponse{Project: proj})
}

// AddItem handles POST /api/v1/projects/:id/items.
func (h *Handlers) AddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	if req.Content == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_content", "Bad Request",
			"Work item content is required")
	}
	priority := workqueue.Priority(req.Priority)
	if !priority.Valid() {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_priority", "Bad Request",
			"Priority must be high, medium, or low: "+req.Priority)
	}

	item, err := h.daemon.AddWork(c.Params("id"), req.Content, priority)
	if err != nil {
		return h.domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ItemResponse{Item: item})
}

// ListItems handles GET /api/v1/projects/:id/items.
func (h *Handlers) ListItems(c *fiber.Ctx) error {
	items, err := h.daemon.ListWork(c.Params("id"))
	if err != nil {
		return h.domainError(c, err)
	}
	if items == nil {
		items = []workqueue.WorkItem{}
	}
	return c.JSON(ItemListResponse{Items: items, Total: len(items)})
}

// NextItem handles GET /api/v1/projects/:id/next.
func (h *Handlers) NextItem(c *fiber.Ctx) error {
	item, ok, err := h.daemon.NextWork(c.Params("id"))
	if err != nil {
		return h.domainError(c, err)
	}
	if !ok {
		return problemResponse(c, fiber.StatusNotFound,
			"queue_empty", "Not Found",
			"No pending work items for project: "+c.Params("id"))
	}
	return c.JSON(ItemResponse{Item: item})
}

// StartItem handles POST /api/v1/items/:id/start.
func (h *Handlers) StartItem(c *fiber.Ctx) error {
	if err := h.daemon.StartWork(c.Params("id")); err != nil {
		return h.domainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CompleteItem handles POST /api/v1/items/:id/complete.
func (h *Handlers) CompleteItem(c *fiber.Ctx) error {
	var req CompleteItemRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if err := h.daemon.CompleteWork(c.Params("id"), req.Result); err != nil {
		return h.domainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RaiseEvent handles POST /api/v1/events.
func (h *Handlers) RaiseEvent(c *fiber.Ctx) error {
	var req RaiseEventRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	eventType := event.Type(req.EventType)
	if !eventType.Valid() {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_event_type", "Bad Request",
			"Event type must be blocking, info, or progress: "+req.EventType)
	}
	if _, err := h.daemon.GetProject(req.ProjectID); err != nil {
		return h.domainError(c, err)
	}

	evt := h.daemon.RaiseEvent(req.ProjectID, eventType, req.Title, req.Content)
	return c.Status(fiber.StatusCreated).JSON(EventResponse{Event: evt})
}

// ListPendingEvents handles GET /api/v1/events.
func (h *Handlers) ListPendingEvents(c *fiber.Ctx) error {
	events := h.daemon.PendingEvents(c.Query("project_id"))
	if events == nil {
		events = []event.Event{}
	}
	return c.JSON(EventListResponse{Events: events, Total: len(events)})
}

// ResolveEvent handles POST /api/v1/events/:id/resolve.
func (h *Handlers) ResolveEvent(c *fiber.Ctx) error {
	var req ResolveEventRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	evt, err := h.daemon.ResolveEvent(c.Params("id"), req.Resolution)
	if err != nil {
		return h.domainError(c, err)
	}
	return c.JSON(EventResponse{Event: evt})
}

// GetSession handles GET /api/v1/projects/:id/session.
func (h *Handlers) GetSession(c *fiber.Ctx) error {
	sess, err := h.daemon.SessionFor(c.Params("id"))
	if err != nil {
		return h.domainError(c, err)
	}
	return c.JSON(SessionResponse{Session: sess})
}

// Status handles GET /api/v1/status.
func (h *Handlers) Status(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		State:         string(h.daemon.State()),
		Projects:      len(h.daemon.ListProjects()),
		PendingEvents: len(h.daemon.PendingEvents("")),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	})
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.Context())

	allOK := true
	for _, s := range results {
		if s == health.StatusDown {
			allOK = false
			break
		}
	}

	if !allOK {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not_ready",
			"checks": results,
		})
	}
	return c.JSON(fiber.Map{
		"status": "ready",
		"checks": results,
	})
}

// domainError maps core errors onto HTTP problem responses.
func (h *Handlers) domainError(c *fiber.Ctx, err error) error {
	switch {
	case ferrors.IsNotFound(err):
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", err.Error())
	case ferrors.IsInvalidTransition(err):
		return problemResponse(c, fiber.StatusConflict,
			"invalid_transition", "Conflict", err.Error())
	default:
		h.logger.Error().Err(err).
			Str("path", c.Path()).
			Str("request_id", requestid.FromContext(c.UserContext())).
			Msg("unexpected domain error")
		return problemResponse(c, fiber.StatusInternalServerError,
			"internal_error", "Internal Server Error",
			"An internal error occurred")
	}
}
