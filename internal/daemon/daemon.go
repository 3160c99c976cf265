// Package daemon wires the registry, work queues, events, and sessions into a
// single lifecycle-managed orchestrator with durable state.
package daemon

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/foreman/internal/config"
	ferrors "github.com/p-blackswan/foreman/internal/errors"
	"github.com/p-blackswan/foreman/internal/event"
	"github.com/p-blackswan/foreman/internal/metrics"
	"github.com/p-blackswan/foreman/internal/registry"
	"github.com/p-blackswan/foreman/internal/session"
	"github.com/p-blackswan/foreman/internal/state"
	"github.com/p-blackswan/foreman/internal/workqueue"
)

// State is the daemon lifecycle state.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// State file names under the configured state directory.
const (
	fileProjects = "projects.json"
	fileQueues   = "queues.json"
	fileEvents   = "events.json"
	fileSessions = "sessions.json"
)

// queueRecord is the persisted form of one project's work queue.
type queueRecord struct {
	ProjectID string               `json:"project_id"`
	Items     []workqueue.WorkItem `json:"items"`
}

// Daemon owns all orchestration state and the polling loop that drives
// execution. All public methods are safe for concurrent use.
type Daemon struct {
	cfg      *config.Config
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	store    *state.Store
	executor Executor

	registry *registry.Registry
	events   *event.Manager
	sessions *session.Manager

	qmu    sync.RWMutex
	queues map[string]*workqueue.Queue

	mu    sync.RWMutex
	state State
	ticks int

	stop     chan struct{}
	loopDone chan struct{}
	inflight sync.WaitGroup
}

// New creates a stopped Daemon. Call Start to load state and begin polling.
func New(cfg *config.Config, store *state.Store, exec Executor, m *metrics.Metrics, logger zerolog.Logger) *Daemon {
	if exec == nil {
		exec = NoOpExecutor{}
	}
	return &Daemon{
		cfg:      cfg,
		logger:   logger.With().Str("component", "daemon").Logger(),
		metrics:  m,
		store:    store,
		executor: exec,
		registry: registry.New(logger),
		events:   event.NewManager(logger),
		sessions: session.NewManager(logger),
		queues:   make(map[string]*workqueue.Queue),
		state:    StateStopped,
	}
}

// State returns the current lifecycle state.
func (d *Daemon) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Daemon) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
	d.logger.Info().Str("state", string(s)).Msg("daemon state changed")
}

// Start loads persisted state and launches the polling loop. Starting a
// daemon that is not stopped is an invalid transition.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateStopped {
		from := d.state
		d.mu.Unlock()
		return ferrors.InvalidTransition("daemon", "daemon", string(from), string(StateStarting))
	}
	d.state = StateStarting
	d.mu.Unlock()
	d.logger.Info().Str("state", string(StateStarting)).Msg("daemon state changed")

	if err := d.loadState(); err != nil {
		d.setState(StateStopped)
		return err
	}

	d.stop = make(chan struct{})
	d.loopDone = make(chan struct{})
	d.setState(StateRunning)
	go d.run()

	d.logger.Info().
		Dur("poll_interval", d.cfg.PollInterval).
		Int("save_interval", d.cfg.SaveInterval).
		Msg("daemon started")
	return nil
}

// Stop halts the polling loop, waits for any in-flight tick work, and writes
// a final flush of all state files.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateRunning {
		from := d.state
		d.mu.Unlock()
		return ferrors.InvalidTransition("daemon", "daemon", string(from), string(StateStopping))
	}
	d.state = StateStopping
	d.mu.Unlock()
	d.logger.Info().Str("state", string(StateStopping)).Msg("daemon state changed")

	close(d.stop)
	select {
	case <-d.loopDone:
	case <-ctx.Done():
		d.logger.Warn().Msg("timed out waiting for polling loop to exit")
	}

	waited := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		d.logger.Warn().Msg("timed out waiting for in-flight dispatches")
	}

	if err := d.flush(); err != nil {
		d.logger.Error().Err(err).Msg("final state flush failed")
	}
	d.setState(StateStopped)
	return nil
}

func (d *Daemon) run() {
	defer close(d.loopDone)
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.tick()
		}
	}
}

// tick scans every registered project once, dispatching at most one item per
// project per tick, and flushes state on the configured cadence.
func (d *Daemon) tick() {
	d.metrics.RecordTick()

	for _, proj := range d.registry.List() {
		sess := d.sessions.GetOrCreate(proj.ID)
		if sess.Paused() {
			continue
		}
		q := d.queueFor(proj.ID)
		if q.HasInProgress() {
			continue
		}
		item, ok := q.GetNext()
		if !ok {
			continue
		}
		if err := q.Start(item.ID); err != nil {
			d.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to start work item")
			continue
		}
		d.dispatch(proj, item)
	}

	d.mu.Lock()
	d.ticks++
	shouldFlush := d.ticks%d.cfg.SaveInterval == 0
	d.mu.Unlock()

	if shouldFlush {
		if err := d.flush(); err != nil {
			d.logger.Error().Err(err).Msg("periodic state flush failed")
		}
	}
}

// dispatch hands the item to the executor on its own goroutine. A completed
// item is recorded with its result; a blocked execution raises a blocking
// event and pauses the project. Any other failure leaves the item in
// progress for the operator to resolve through the API.
func (d *Daemon) dispatch(proj registry.Project, item workqueue.WorkItem) {
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.DispatchGrace)
		defer cancel()

		result, err := d.executor.Execute(ctx, proj, item)
		if err != nil {
			var blocked *BlockedError
			if errors.As(err, &blocked) {
				d.RaiseEvent(proj.ID, event.TypeBlocking, blocked.Title, blocked.Reason)
				d.metrics.RecordDispatch("blocked")
				return
			}
			d.logger.Error().Err(err).
				Str("project_id", proj.ID).
				Str("item_id", item.ID).
				Msg("work item execution failed")
			d.metrics.RecordDispatch("error")
			return
		}

		if err := d.queueFor(proj.ID).Complete(item.ID, result); err != nil {
			d.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to complete work item")
			return
		}
		d.metrics.RecordDispatch("completed")
		d.logger.Info().
			Str("project_id", proj.ID).
			Str("item_id", item.ID).
			Msg("work item completed")
	}()
}

func (d *Daemon) queueFor(projectID string) *workqueue.Queue {
	d.qmu.RLock()
	q, ok := d.queues[projectID]
	d.qmu.RUnlock()
	if ok {
		return q
	}
	d.qmu.Lock()
	defer d.qmu.Unlock()
	if q, ok = d.queues[projectID]; ok {
		return q
	}
	q = workqueue.New()
	d.queues[projectID] = q
	return q
}

// RegisterProject adds a project to the registry and creates its queue and
// session eagerly so they survive the next flush.
func (d *Daemon) RegisterProject(path, name string) registry.Project {
	proj := d.registry.Register(path, name)
	d.queueFor(proj.ID)
	d.sessions.GetOrCreate(proj.ID)
	return proj
}

// GetProject returns a registered project by id.
func (d *Daemon) GetProject(id string) (registry.Project, error) {
	return d.registry.Get(id)
}

// ListProjects returns all projects in registration order.
func (d *Daemon) ListProjects() []registry.Project {
	return d.registry.List()
}

// AddWork enqueues a work item for a registered project.
func (d *Daemon) AddWork(projectID, content string, priority workqueue.Priority) (workqueue.WorkItem, error) {
	if _, err := d.registry.Get(projectID); err != nil {
		return workqueue.WorkItem{}, err
	}
	item := d.queueFor(projectID).Add(content, priority)
	d.metrics.RecordItemAdded(string(priority))
	d.logger.Info().
		Str("project_id", projectID).
		Str("item_id", item.ID).
		Str("priority", string(priority)).
		Msg("work item added")
	return item, nil
}

// NextWork returns the item the queue would dispatch next without mutating it.
func (d *Daemon) NextWork(projectID string) (workqueue.WorkItem, bool, error) {
	if _, err := d.registry.Get(projectID); err != nil {
		return workqueue.WorkItem{}, false, err
	}
	item, ok := d.queueFor(projectID).GetNext()
	return item, ok, nil
}

// ListWork returns every item in a project's queue in insertion order.
func (d *Daemon) ListWork(projectID string) ([]workqueue.WorkItem, error) {
	if _, err := d.registry.Get(projectID); err != nil {
		return nil, err
	}
	return d.queueFor(projectID).List(), nil
}

// StartWork transitions an item from pending to in progress, searching all
// project queues for the id.
func (d *Daemon) StartWork(itemID string) error {
	return d.eachQueue(func(q *workqueue.Queue) error {
		return q.Start(itemID)
	}, itemID)
}

// CompleteWork transitions an item from in progress to completed with a
// result payload.
func (d *Daemon) CompleteWork(itemID, result string) error {
	return d.eachQueue(func(q *workqueue.Queue) error {
		return q.Complete(itemID, result)
	}, itemID)
}

// eachQueue applies op across queues until one knows the item. A queue that
// holds the item in the wrong state surfaces its invalid-transition error.
func (d *Daemon) eachQueue(op func(*workqueue.Queue) error, itemID string) error {
	d.qmu.RLock()
	queues := make([]*workqueue.Queue, 0, len(d.queues))
	for _, q := range d.queues {
		queues = append(queues, q)
	}
	d.qmu.RUnlock()

	for _, q := range queues {
		err := op(q)
		if err == nil {
			return nil
		}
		if !ferrors.IsNotFound(err) {
			return err
		}
	}
	return ferrors.NotFound("work item", itemID)
}

// RaiseEvent records an event. A blocking event additionally pauses the
// owning project's session until the event is resolved.
func (d *Daemon) RaiseEvent(projectID string, eventType event.Type, title, content string) event.Event {
	evt := d.events.Add(projectID, eventType, title, content)
	if eventType.Blocking() {
		d.sessions.Pause(projectID, evt.ID)
	}
	d.updateBlockingGauge()
	return evt
}

// ResolveEvent resolves an event and resumes the paused session if this
// event was what paused it.
func (d *Daemon) ResolveEvent(eventID, resolution string) (event.Event, error) {
	evt, err := d.events.Resolve(eventID, resolution)
	if err != nil {
		return event.Event{}, err
	}
	d.sessions.ClearPause(eventID)
	d.updateBlockingGauge()
	return evt, nil
}

// GetEvent returns an event by id.
func (d *Daemon) GetEvent(id string) (event.Event, error) {
	return d.events.Get(id)
}

// PendingEvents returns pending events, optionally filtered by project.
func (d *Daemon) PendingEvents(projectID string) []event.Event {
	pending := d.events.Pending()
	if projectID == "" {
		return pending
	}
	var out []event.Event
	for _, evt := range pending {
		if evt.ProjectID == projectID {
			out = append(out, evt)
		}
	}
	return out
}

// SessionFor returns the session for a registered project, creating it if
// the project exists but has never run.
func (d *Daemon) SessionFor(projectID string) (session.Session, error) {
	if _, err := d.registry.Get(projectID); err != nil {
		return session.Session{}, err
	}
	return d.sessions.GetOrCreate(projectID), nil
}

func (d *Daemon) updateBlockingGauge() {
	var n float64
	for _, evt := range d.events.Pending() {
		if evt.EventType.Blocking() {
			n++
		}
	}
	d.metrics.SetPendingBlocking(n)
}

// loadState hydrates all collections from the state directory. Corrupt files
// reset to empty; only I/O failures abort startup.
func (d *Daemon) loadState() error {
	var projects []registry.Project
	if err := d.store.LoadOrReset(fileProjects, &projects); err != nil {
		return err
	}
	d.registry.Restore(projects)

	var records []queueRecord
	if err := d.store.LoadOrReset(fileQueues, &records); err != nil {
		return err
	}
	d.qmu.Lock()
	d.queues = make(map[string]*workqueue.Queue, len(records))
	for _, rec := range records {
		q := workqueue.New()
		q.Restore(rec.Items)
		d.queues[rec.ProjectID] = q
	}
	d.qmu.Unlock()

	var events []event.Event
	if err := d.store.LoadOrReset(fileEvents, &events); err != nil {
		return err
	}
	d.events.Restore(events)

	var sessions []session.Session
	if err := d.store.LoadOrReset(fileSessions, &sessions); err != nil {
		return err
	}
	d.sessions.Restore(sessions)

	d.updateBlockingGauge()
	d.logger.Info().
		Int("projects", len(projects)).
		Int("queues", len(records)).
		Int("events", len(events)).
		Int("sessions", len(sessions)).
		Msg("state loaded")
	return nil
}

// flush writes all four state files atomically, one file at a time.
func (d *Daemon) flush() error {
	start := time.Now()

	if err := d.store.Save(fileProjects, d.registry.Snapshot()); err != nil {
		return err
	}

	var records []queueRecord
	for _, proj := range d.registry.List() {
		d.qmu.RLock()
		q, ok := d.queues[proj.ID]
		d.qmu.RUnlock()
		if !ok {
			continue
		}
		records = append(records, queueRecord{ProjectID: proj.ID, Items: q.List()})
	}
	if err := d.store.Save(fileQueues, records); err != nil {
		return err
	}

	if err := d.store.Save(fileEvents, d.events.Snapshot()); err != nil {
		return err
	}
	if err := d.store.Save(fileSessions, d.sessions.Snapshot()); err != nil {
		return err
	}

	d.metrics.ObserveFlush(time.Since(start).Seconds())
	d.logger.Debug().Dur("elapsed", time.Since(start)).Msg("state flushed")
	return nil
}

// Flush forces an immediate write of all state files.
func (d *Daemon) Flush() error {
	return d.flush()
}
