// Package workqueue implements the per-project prioritized work queue.
//
// Items carry an opaque instruction string the queue never interprets. The
// lifecycle is strictly pending -> in_progress -> completed; any other move
// is an invalid transition. Advancing an item is always an explicit caller
// action (GetNext never mutates state) so the "what runs now" decision
// stays in the daemon loop rather than hidden inside the queue.
package workqueue

import (
	"sync"
	"time"

	"github.com/google/uuid"

	ferrors "github.com/p-blackswan/foreman/internal/errors"
)

// Priority is the ordered tier of a work item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// rank orders priorities; higher wins.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Valid reports whether p is a known priority tier.
func (p Priority) Valid() bool {
	return p.rank() > 0
}

// State is the lifecycle state of a work item.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// WorkItem is one unit of work. Content and Result are opaque to the core.
type WorkItem struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Priority  Priority `json:"priority"`
	State     State    `json:"state"`
	Result    string   `json:"result,omitempty"`
	CreatedAt int64    `json:"created_at"`
}

// Queue holds the work items of a single project in insertion order.
type Queue struct {
	mu    sync.RWMutex
	items []*WorkItem
	byID  map[string]*WorkItem
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{byID: make(map[string]*WorkItem)}
}

// Add creates a new pending item with a fresh id and appends it.
func (q *Queue) Add(content string, priority Priority) WorkItem {
	item := &WorkItem{
		ID:        uuid.New().String(),
		Content:   content,
		Priority:  priority,
		State:     StatePending,
		CreatedAt: time.Now().UnixMilli(),
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	q.byID[item.ID] = item
	q.mu.Unlock()

	return *item
}

// GetNext returns the highest-priority pending item; equal priorities break
// ties by insertion order. The second return is false when nothing is
// pending. State is not mutated; callers must Start the returned item.
func (q *Queue) GetNext() (WorkItem, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var best *WorkItem
	for _, item := range q.items {
		if item.State != StatePending {
			continue
		}
		if best == nil || item.Priority.rank() > best.Priority.rank() {
			best = item
		}
	}
	if best == nil {
		return WorkItem{}, false
	}
	return *best, true
}

// Start transitions the named item from pending to in_progress.
func (q *Queue) Start(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.byID[id]
	if !ok {
		return ferrors.NotFound("work item", id)
	}
	if item.State != StatePending {
		return ferrors.InvalidTransition("work item", id, string(item.State), string(StateInProgress))
	}
	item.State = StateInProgress
	return nil
}

// Complete transitions the named item from in_progress to completed,
// storing the opaque result.
func (q *Queue) Complete(id, result string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.byID[id]
	if !ok {
		return ferrors.NotFound("work item", id)
	}
	if item.State != StateInProgress {
		return ferrors.InvalidTransition("work item", id, string(item.State), string(StateCompleted))
	}
	item.State = StateCompleted
	item.Result = result
	return nil
}

// List returns all items, including completed ones, in insertion order.
func (q *Queue) List() []WorkItem {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]WorkItem, len(q.items))
	for i, item := range q.items {
		out[i] = *item
	}
	return out
}

// HasInProgress reports whether any item is currently in_progress.
func (q *Queue) HasInProgress() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, item := range q.items {
		if item.State == StateInProgress {
			return true
		}
	}
	return false
}

// CompletionRatio returns completed / total, or 0 for an empty queue.
func (q *Queue) CompletionRatio() float64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if len(q.items) == 0 {
		return 0
	}
	completed := 0
	for _, item := range q.items {
		if item.State == StateCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(q.items))
}

// Restore replaces the queue contents with persisted records.
func (q *Queue) Restore(items []WorkItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = make([]*WorkItem, 0, len(items))
	q.byID = make(map[string]*WorkItem, len(items))
	for i := range items {
		item := items[i]
		q.items = append(q.items, &item)
		q.byID[item.ID] = &item
	}
}
