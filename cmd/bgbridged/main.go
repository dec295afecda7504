// Command bgbridged runs the background task bridge daemon: it wires the
// task registry, lifecycle coordinator, event bus, and simulated scheduler
// together and serves the admin inspection API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"github.com/fieldline/bgbridge/internal/config"
	"github.com/fieldline/bgbridge/internal/coordinator"
	"github.com/fieldline/bgbridge/internal/events"
	"github.com/fieldline/bgbridge/internal/platform/logger"
	"github.com/fieldline/bgbridge/internal/platform/postgres"
	"github.com/fieldline/bgbridge/internal/registry"
	"github.com/fieldline/bgbridge/internal/scheduler"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (optional)")
	flag.Parse()

	if err := run(configPath); err != nil {
		slog.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server.LogLevel)
	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"audit_enabled", cfg.Database.URL != "",
		"admin_auth_enabled", cfg.Auth.AdminTokenSecret != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus(cfg.Events.BufferSize, log)
	defer bus.Close()

	// Every lifecycle event is also visible in the daemon log.
	bus.Subscribe(events.ListenerFunc(func(_ context.Context, ev events.Event) error {
		log.Info("lifecycle event",
			"event_type", ev.Type,
			"task_id", ev.TaskID,
			"grant_handle", ev.GrantHandle,
			"error", ev.Error)
		return nil
	}))

	if cfg.Database.URL != "" {
		db, err := sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("open audit database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("failed to close audit database", "error", err)
			}
		}()
		if err := postgres.Migrate(db); err != nil {
			return fmt.Errorf("migrate audit database: %w", err)
		}
		bus.Subscribe(postgres.NewGrantEventStore(db, log))
		log.Info("grant event audit enabled")
	}

	sim := scheduler.NewSimulator(scheduler.SimulatorConfig{
		TickInterval: cfg.Scheduler.TickInterval,
		GrantWindow:  cfg.Scheduler.GrantWindow,
	}, log)

	reg := registry.New()
	if err := registerBuiltinHandlers(reg, sim, log); err != nil {
		return fmt.Errorf("register handlers: %w", err)
	}
	reg.Seal()

	coord := coordinator.New(reg, sim, bus, log)

	// Seed one execution request per registered task.
	for _, id := range reg.Identifiers() {
		if err := sim.RequestFutureExecution(ctx, scheduler.ExecutionRequest{
			TaskID:     id,
			EarliestAt: time.Now(),
		}); err != nil {
			return fmt.Errorf("request execution for %q: %w", id, err)
		}
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: newRouter(cfg, reg, coord, log),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sim.Run(gctx, coord)
	})
	g.Go(func() error {
		log.Info("starting admin server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("admin server shutdown failed", "error", err)
		}
		if err := coord.Shutdown(shutdownCtx); err != nil {
			log.Error("coordinator shutdown failed", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// Drain queued events while the audit database is still open.
	bus.Close()
	log.Info("shutdown complete")
	return nil
}
