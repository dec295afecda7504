package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldline/bgbridge/internal/registry"
	"github.com/fieldline/bgbridge/internal/scheduler"
)

// Built-in task identifiers served by the daemon.
const (
	taskAppRefresh = "app-refresh"
	taskCacheSweep = "cache-sweep"
)

// registerBuiltinHandlers binds the daemon's demo workloads. app-refresh
// reschedules itself after each run, the way periodic refresh tasks
// resubmit from inside their own execution window.
func registerBuiltinHandlers(
	reg *registry.Registry,
	requester scheduler.ExecutionRequester,
	log *slog.Logger,
) error {
	refresh := registry.HandlerFunc(func(ctx context.Context) error {
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
		log.Info("app refresh finished")

		if err := requester.RequestFutureExecution(ctx, scheduler.ExecutionRequest{
			TaskID:     taskAppRefresh,
			EarliestAt: time.Now().Add(time.Minute),
		}); err != nil {
			log.Warn("failed to reschedule app refresh", "error", err)
		}
		return nil
	})
	if err := reg.Register(taskAppRefresh, refresh); err != nil {
		return err
	}

	sweep := registry.HandlerFunc(func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Info("cache sweep finished")
		return nil
	})
	return reg.Register(taskCacheSweep, sweep)
}
