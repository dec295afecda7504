package coordinator

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Per-grant states. A grant leaves grantPending exactly once; whichever of
// the completion and watchdog paths wins the compare-and-swap owns the
// completion report, the loser observes the terminal state and becomes a
// no-op.
const (
	grantPending int32 = iota
	grantCompleted
	grantExpired
)

// activeGrant tracks one pending execution opportunity.
type activeGrant struct {
	handle    uuid.UUID
	taskID    string
	deadline  time.Time
	startedAt time.Time

	state atomic.Int32

	// cancel tears down the handler context; used both for cooperative
	// cancellation on expiry and to release timer resources on completion.
	cancel context.CancelFunc

	// done is closed when the handler returns, letting the watchdog stand
	// down without waiting for the deadline.
	done chan struct{}
}

// claim attempts the terminal transition out of grantPending.
func (g *activeGrant) claim(terminal int32) bool {
	return g.state.CompareAndSwap(grantPending, terminal)
}

// GrantInfo is a read-only snapshot of an active grant, exposed on the
// admin surface.
type GrantInfo struct {
	Handle    uuid.UUID `json:"handle"`
	TaskID    string    `json:"task_id"`
	StartedAt time.Time `json:"started_at"`
	Deadline  time.Time `json:"deadline"`
}

// Stats are cumulative counters over the coordinator's lifetime.
type Stats struct {
	Granted         int64 `json:"granted"`
	Completed       int64 `json:"completed"`
	Failed          int64 `json:"failed"`
	Expired         int64 `json:"expired"`
	Rejected        int64 `json:"rejected"`
	LateCompletions int64 `json:"late_completions"`
}
