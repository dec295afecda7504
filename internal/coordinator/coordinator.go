package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fieldline/bgbridge/internal/events"
	"github.com/fieldline/bgbridge/internal/registry"
	"github.com/fieldline/bgbridge/internal/scheduler"
)

// Runtime grant failures. These are recovered locally: the grant is failed
// to the scheduler and surfaced as a lifecycle event, and the process
// continues.
var (
	ErrUnregisteredIdentifier = errors.New("no handler registered for task identifier")
	ErrDuplicateGrant         = errors.New("a grant for this task identifier is already pending")
	ErrGrantExpired           = errors.New("grant expired before handler completion")
)

// Coordinator multiplexes scheduler grants onto registered handlers and
// guarantees exactly one completion report per grant handle.
type Coordinator struct {
	registry *registry.Registry
	reporter scheduler.CompletionReporter
	emitter  events.Emitter
	logger   *slog.Logger

	// mu guards active. It is held only for map lookups and mutations,
	// never across handler execution or reporting.
	mu     sync.Mutex
	active map[string]*activeGrant

	wg sync.WaitGroup

	granted         atomic.Int64
	completed       atomic.Int64
	failed          atomic.Int64
	expired         atomic.Int64
	rejected        atomic.Int64
	lateCompletions atomic.Int64
}

// New creates a Coordinator. The registry should be sealed before the
// scheduler is allowed to deliver grants.
func New(
	reg *registry.Registry,
	reporter scheduler.CompletionReporter,
	emitter events.Emitter,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		registry: reg,
		reporter: reporter,
		emitter:  emitter,
		logger:   logger.With("component", "task_coordinator"),
		active:   make(map[string]*activeGrant),
	}
}

// OnGrant is the scheduler's entry point. It runs on the scheduler's
// delivery goroutine and returns without waiting for handler work: the
// handler and its deadline watchdog run on their own goroutines.
//
// ctx is the scheduler-owned cancel signal for this grant; its cancellation
// before the deadline means the work should stop early.
func (c *Coordinator) OnGrant(ctx context.Context, grant scheduler.Grant) {
	log := c.logger.With("task_id", grant.TaskID, "grant_handle", grant.Handle)

	c.mu.Lock()
	if _, exists := c.active[grant.TaskID]; exists {
		c.mu.Unlock()
		// Scheduler contract violation or double delivery: fail the new
		// grant only, the pending one is unaffected.
		c.rejected.Add(1)
		log.Warn("discarding grant, another is still pending for this identifier")
		c.reporter.ReportCompletion(grant.Handle, false)
		c.emitter.Emit(events.New(events.EventFailed, grant.TaskID, grant.Handle, ErrDuplicateGrant))
		return
	}

	handler, ok := c.registry.Lookup(grant.TaskID)
	if !ok {
		c.mu.Unlock()
		c.rejected.Add(1)
		log.Warn("grant for unregistered task identifier")
		c.reporter.ReportCompletion(grant.Handle, false)
		c.emitter.Emit(events.New(events.EventFailed, grant.TaskID, grant.Handle, ErrUnregisteredIdentifier))
		return
	}

	handlerCtx, cancel := context.WithDeadline(ctx, grant.Deadline)
	g := &activeGrant{
		handle:    grant.Handle,
		taskID:    grant.TaskID,
		deadline:  grant.Deadline,
		startedAt: time.Now().UTC(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	c.active[grant.TaskID] = g
	c.mu.Unlock()

	c.granted.Add(1)
	log.Info("grant accepted", "deadline", grant.Deadline)
	c.emitter.Emit(events.New(events.EventStarted, grant.TaskID, grant.Handle, nil))

	c.wg.Add(2)
	go c.runHandler(handlerCtx, g, handler)
	go c.watchdog(ctx, g)
}

// runHandler executes the handler and drives the completion path.
func (c *Coordinator) runHandler(ctx context.Context, g *activeGrant, handler registry.Handler) {
	defer c.wg.Done()
	err := c.invoke(ctx, g, handler)
	close(g.done)
	c.handleCompletion(g, err)
}

// invoke runs the handler, converting a panic into an error so no handler
// failure can propagate out of the coordinator.
func (c *Coordinator) invoke(ctx context.Context, g *activeGrant, handler registry.Handler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
			c.logger.Error("handler panicked",
				"task_id", g.taskID,
				"grant_handle", g.handle,
				"panic", p,
				"stack", string(debug.Stack()))
		}
	}()
	return handler.Execute(ctx)
}

// handleCompletion resolves the handler-finished side of the race. If the
// watchdog already claimed the grant, the late outcome is recorded for
// diagnostics only; the scheduler must not receive a second report.
func (c *Coordinator) handleCompletion(g *activeGrant, err error) {
	if !g.claim(grantCompleted) {
		c.lateCompletions.Add(1)
		c.logger.Warn("late handler completion after grant expiry",
			"task_id", g.taskID,
			"grant_handle", g.handle,
			"error", err)
		return
	}
	g.cancel()
	c.remove(g)

	if err != nil {
		c.failed.Add(1)
		c.logger.Error("handler failed",
			"task_id", g.taskID,
			"grant_handle", g.handle,
			"error", err)
		c.reporter.ReportCompletion(g.handle, false)
		c.emitter.Emit(events.New(events.EventFailed, g.taskID, g.handle, err))
		return
	}

	c.completed.Add(1)
	c.logger.Info("handler completed",
		"task_id", g.taskID,
		"grant_handle", g.handle,
		"elapsed", time.Since(g.startedAt))
	c.reporter.ReportCompletion(g.handle, true)
	c.emitter.Emit(events.New(events.EventCompleted, g.taskID, g.handle, nil))
}

// watchdog waits for the deadline, an early scheduler cancel, or handler
// completion, whichever comes first.
func (c *Coordinator) watchdog(ctx context.Context, g *activeGrant) {
	defer c.wg.Done()

	timer := time.NewTimer(time.Until(g.deadline))
	defer timer.Stop()

	select {
	case <-g.done:
		return
	case <-timer.C:
	case <-ctx.Done():
	}
	c.expire(g)
}

// expire resolves the watchdog side of the race: cooperative cancellation
// toward the handler, one failure report, one Expired event.
func (c *Coordinator) expire(g *activeGrant) {
	if !g.claim(grantExpired) {
		return
	}
	g.cancel()
	c.remove(g)

	c.expired.Add(1)
	c.logger.Warn("grant expired before handler completion",
		"task_id", g.taskID,
		"grant_handle", g.handle,
		"deadline", g.deadline)
	c.reporter.ReportCompletion(g.handle, false)
	c.emitter.Emit(events.New(events.EventExpired, g.taskID, g.handle, ErrGrantExpired))
}

// remove drops the grant from the active table. Guarded by pointer identity
// so a successor grant for the same identifier is never evicted.
func (c *Coordinator) remove(g *activeGrant) {
	c.mu.Lock()
	if c.active[g.taskID] == g {
		delete(c.active, g.taskID)
	}
	c.mu.Unlock()
}

// Snapshot returns the currently active grants, sorted by task identifier.
func (c *Coordinator) Snapshot() []GrantInfo {
	c.mu.Lock()
	infos := make([]GrantInfo, 0, len(c.active))
	for _, g := range c.active {
		infos = append(infos, GrantInfo{
			Handle:    g.handle,
			TaskID:    g.taskID,
			StartedAt: g.startedAt,
			Deadline:  g.deadline,
		})
	}
	c.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].TaskID < infos[j].TaskID })
	return infos
}

// Stats returns cumulative lifecycle counters.
func (c *Coordinator) Stats() Stats {
	return Stats{
		Granted:         c.granted.Load(),
		Completed:       c.completed.Load(),
		Failed:          c.failed.Load(),
		Expired:         c.expired.Load(),
		Rejected:        c.rejected.Load(),
		LateCompletions: c.lateCompletions.Load(),
	}
}

// Shutdown requests cooperative cancellation of every active handler and
// waits for in-flight grants to resolve, bounded by ctx. Each grant still
// receives exactly one completion report on its usual path.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	for _, g := range c.active {
		g.cancel()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("coordinator shutdown: %w", ctx.Err())
	}
}
