package daemon

import (
	"context"
	"fmt"

	"github.com/p-blackswan/foreman/internal/registry"
	"github.com/p-blackswan/foreman/internal/workqueue"
)

// Executor runs a dispatched work item for a project and returns its result.
// Implementations are expected to be long-running and honor ctx cancellation.
type Executor interface {
	Execute(ctx context.Context, project registry.Project, item workqueue.WorkItem) (string, error)
}

// BlockedError signals that execution cannot proceed without human input.
// The daemon raises a blocking event from it and pauses the project session.
type BlockedError struct {
	Title  string
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("execution blocked: %s", e.Title)
}

// NoOpExecutor completes every item immediately. It is the default when the
// daemon runs API-only, with callers driving items through start/complete.
type NoOpExecutor struct{}

func (NoOpExecutor) Execute(ctx context.Context, project registry.Project, item workqueue.WorkItem) (string, error) {
	return "completed", nil
}
