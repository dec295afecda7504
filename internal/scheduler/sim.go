package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/google/uuid"
)

// Simulator errors.
var (
	ErrSimulatorStopped = errors.New("simulator is stopped")
)

// SimulatorConfig holds tuning knobs for the in-process scheduler.
type SimulatorConfig struct {
	// TickInterval is how often due requests are checked and turned into
	// grants. If zero, defaults to 100ms.
	TickInterval time.Duration

	// GrantWindow is how long a granted task has before its deadline.
	// If zero, defaults to 30s.
	GrantWindow time.Duration
}

// requestKey orders pending requests by earliest-run time; seq breaks ties
// between requests scheduled for the same instant.
type requestKey struct {
	at  time.Time
	seq uint64
}

func compareRequestKeys(a, b interface{}) int {
	ka := a.(requestKey)
	kb := b.(requestKey)
	switch {
	case ka.at.Before(kb.at):
		return -1
	case ka.at.After(kb.at):
		return 1
	case ka.seq < kb.seq:
		return -1
	case ka.seq > kb.seq:
		return 1
	default:
		return 0
	}
}

// outstandingGrant tracks a delivered grant awaiting its completion report.
type outstandingGrant struct {
	taskID    string
	deadline  time.Time
	cancel    context.CancelFunc
	withdrawn bool
}

// Simulator is an in-process stand-in for the OS scheduling subsystem. It
// implements ExecutionRequester and CompletionReporter and drives a GrantSink
// from its own tick loop, issuing at most one grant per request.
type Simulator struct {
	cfg    SimulatorConfig
	logger *slog.Logger

	mu           sync.Mutex
	pending      *redblacktree.Tree // requestKey -> ExecutionRequest
	seq          uint64
	outstanding  map[uuid.UUID]*outstandingGrant
	connectivity bool
	charging     bool
	stopped      bool
}

// NewSimulator creates a Simulator. Connectivity and charging both start
// satisfied so unconstrained setups grant immediately.
func NewSimulator(cfg SimulatorConfig, logger *slog.Logger) *Simulator {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 100 * time.Millisecond
	}
	if cfg.GrantWindow <= 0 {
		cfg.GrantWindow = 30 * time.Second
	}
	return &Simulator{
		cfg:          cfg,
		logger:       logger.With("component", "sim_scheduler"),
		pending:      redblacktree.NewWith(compareRequestKeys),
		outstanding:  make(map[uuid.UUID]*outstandingGrant),
		connectivity: true,
		charging:     true,
	}
}

// SetConnectivity flips the simulated network condition.
func (s *Simulator) SetConnectivity(up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectivity = up
}

// SetCharging flips the simulated charging condition.
func (s *Simulator) SetCharging(charging bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charging = charging
}

// RequestFutureExecution queues a request to grant the task at or after
// req.EarliestAt. Acceptance does not guarantee a grant.
func (s *Simulator) RequestFutureExecution(ctx context.Context, req ExecutionRequest) error {
	if req.TaskID == "" {
		return errors.New("request must name a task identifier")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("request %q: %w", req.TaskID, ErrSimulatorStopped)
	}
	s.seq++
	s.pending.Put(requestKey{at: req.EarliestAt, seq: s.seq}, req)
	s.logger.Debug("queued execution request",
		"task_id", req.TaskID,
		"earliest_at", req.EarliestAt,
		"requires_connectivity", req.RequiresConnectivity,
		"requires_charging", req.RequiresCharging)
	return nil
}

// ReportCompletion records the outcome of a grant. Each handle is accepted
// once; anything else indicates a contract violation upstream and is logged.
func (s *Simulator) ReportCompletion(handle uuid.UUID, success bool) {
	s.mu.Lock()
	grant, ok := s.outstanding[handle]
	if ok {
		delete(s.outstanding, handle)
	}
	s.mu.Unlock()

	if !ok {
		s.logger.Error("completion report for unknown or already reported grant handle",
			"grant_handle", handle,
			"success", success)
		return
	}

	grant.cancel()
	s.logger.Info("grant completed",
		"grant_handle", handle,
		"task_id", grant.taskID,
		"success", success)
}

// Run drives the tick loop until ctx is cancelled, delivering due requests
// to the sink. It always returns nil after cleanup so an errgroup treats
// cancellation as a clean stop.
func (s *Simulator) Run(ctx context.Context, sink GrantSink) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case <-ticker.C:
			s.deliverDue(ctx, sink)
			s.sweepOverdue()
		}
	}
}

// deliverDue pops every request whose earliest-run time has passed and whose
// conditions are satisfied, and hands a grant to the sink.
func (s *Simulator) deliverDue(ctx context.Context, sink GrantSink) {
	now := time.Now()

	for {
		s.mu.Lock()
		node := s.pending.Left()
		if node == nil {
			s.mu.Unlock()
			return
		}
		key := node.Key.(requestKey)
		if key.at.After(now) {
			s.mu.Unlock()
			return
		}
		req := node.Value.(ExecutionRequest)
		s.pending.Remove(key)

		if (req.RequiresConnectivity && !s.connectivity) || (req.RequiresCharging && !s.charging) {
			// Conditions unmet; retry on a later tick.
			s.seq++
			s.pending.Put(requestKey{at: now.Add(s.cfg.TickInterval), seq: s.seq}, req)
			s.mu.Unlock()
			continue
		}

		handle := uuid.New()
		grantCtx, cancel := context.WithCancel(ctx)
		s.outstanding[handle] = &outstandingGrant{
			taskID:   req.TaskID,
			deadline: now.Add(s.cfg.GrantWindow),
			cancel:   cancel,
		}
		grant := Grant{
			Handle:   handle,
			TaskID:   req.TaskID,
			Deadline: s.outstanding[handle].deadline,
		}
		s.mu.Unlock()

		s.logger.Info("issuing grant",
			"grant_handle", handle,
			"task_id", grant.TaskID,
			"deadline", grant.Deadline)
		sink.OnGrant(grantCtx, grant)
	}
}

// sweepOverdue withdraws grants whose deadline passed without a report. The
// real subsystem would kill the process here; the simulator raises the
// cancel signal and keeps waiting for the (late) report.
func (s *Simulator) sweepOverdue() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for handle, grant := range s.outstanding {
		if grant.withdrawn || grant.deadline.After(now) {
			continue
		}
		grant.withdrawn = true
		grant.cancel()
		s.logger.Warn("grant deadline passed without completion report",
			"grant_handle", handle,
			"task_id", grant.taskID)
	}
}

func (s *Simulator) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for _, grant := range s.outstanding {
		grant.cancel()
	}
	s.logger.Info("simulator stopped",
		"pending_requests", s.pending.Size(),
		"outstanding_grants", len(s.outstanding))
}
