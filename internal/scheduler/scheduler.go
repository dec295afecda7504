package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Grant is one scheduler-issued opportunity to execute a background task
// before a deadline.
type Grant struct {
	// Handle uniquely identifies this grant for completion reporting.
	Handle uuid.UUID

	// TaskID references a registered task identifier.
	TaskID string

	// Deadline is the absolute point in time by which completion must be
	// reported. Missing it forfeits the process's scheduling goodwill.
	Deadline time.Time
}

// GrantSink receives grant deliveries from the scheduler.
// Version: 1.0
type GrantSink interface {
	// OnGrant is invoked on the scheduler's own goroutine and must return
	// quickly; actual work runs on an independent goroutine. The context is
	// cancelled if the scheduler withdraws the grant before the deadline
	// (the one-shot cancel signal).
	OnGrant(ctx context.Context, grant Grant)
}

// CompletionReporter receives the outcome of a grant.
// Version: 1.0
type CompletionReporter interface {
	// ReportCompletion acknowledges a grant. The scheduler accepts exactly
	// one report per grant handle; a second report is undefined behavior and
	// must be prevented by the caller.
	ReportCompletion(handle uuid.UUID, success bool)
}

// ExecutionRequest asks the scheduler to issue a grant for a task at some
// point after EarliestAt, subject to the listed conditions.
type ExecutionRequest struct {
	TaskID               string
	EarliestAt           time.Time
	RequiresConnectivity bool
	RequiresCharging     bool
}

// ExecutionRequester submits execution requests to the scheduler.
// Version: 1.0
type ExecutionRequester interface {
	// RequestFutureExecution asks for a future grant. A nil error means the
	// request was accepted, not that it will ever be granted.
	RequestFutureExecution(ctx context.Context, req ExecutionRequest) error
}
