package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/fieldline/bgbridge/internal/events"
)

// DBTX is the subset of database operations the store needs, satisfied by
// both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GrantEventStore appends lifecycle events to the grant_events table. It
// implements events.Listener so it can be subscribed directly to the bus.
type GrantEventStore struct {
	db     DBTX
	logger *slog.Logger
}

// NewGrantEventStore creates a GrantEventStore over the given database.
func NewGrantEventStore(db DBTX, logger *slog.Logger) *GrantEventStore {
	return &GrantEventStore{
		db:     db,
		logger: logger.With("component", "grant_event_store"),
	}
}

// InsertEvent persists a single lifecycle event.
func (s *GrantEventStore) InsertEvent(ctx context.Context, event events.Event) error {
	query := `
		INSERT INTO grant_events (id, event_type, task_id, grant_handle, occurred_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Type),
		event.TaskID,
		event.GrantHandle,
		event.Timestamp,
		event.Error,
	)
	if err != nil {
		return fmt.Errorf("insert grant event %s: %w", event.ID, err)
	}
	return nil
}

// HandleEvent implements events.Listener. Persistence failures are logged
// and returned for the bus to record; they never affect coordinator state.
func (s *GrantEventStore) HandleEvent(ctx context.Context, event events.Event) error {
	if err := s.InsertEvent(ctx, event); err != nil {
		s.logger.Error("failed to persist lifecycle event",
			"event_id", event.ID,
			"event_type", event.Type,
			"task_id", event.TaskID,
			"error", err)
		return err
	}
	return nil
}
