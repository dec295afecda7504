package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/bgbridge/internal/events"
)

// fakeDB records ExecContext calls and optionally fails them.
type fakeDB struct {
	query string
	args  []any
	err   error
}

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 1, nil }

func (f *fakeDB) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.query = query
	f.args = args
	if f.err != nil {
		return nil, f.err
	}
	return fakeResult{}, nil
}

func newStoreLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInsertEvent(t *testing.T) {
	t.Run("writes all event fields", func(t *testing.T) {
		db := &fakeDB{}
		store := NewGrantEventStore(db, newStoreLogger())

		event := events.New(events.EventExpired, "sync", uuid.New(), errors.New("grant expired"))
		require.NoError(t, store.InsertEvent(context.Background(), event))

		assert.Contains(t, db.query, "INSERT INTO grant_events")
		require.Len(t, db.args, 6)
		assert.Equal(t, event.ID, db.args[0])
		assert.Equal(t, "expired", db.args[1])
		assert.Equal(t, "sync", db.args[2])
		assert.Equal(t, event.GrantHandle, db.args[3])
		assert.Equal(t, event.Timestamp, db.args[4])
		assert.Equal(t, "grant expired", db.args[5])
	})

	t.Run("wraps database errors", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		db := &fakeDB{err: dbErr}
		store := NewGrantEventStore(db, newStoreLogger())

		err := store.InsertEvent(context.Background(), events.New(events.EventStarted, "refresh", uuid.New(), nil))
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestHandleEvent(t *testing.T) {
	t.Run("persists the event", func(t *testing.T) {
		db := &fakeDB{}
		store := NewGrantEventStore(db, newStoreLogger())

		err := store.HandleEvent(context.Background(), events.New(events.EventCompleted, "refresh", uuid.New(), nil))
		require.NoError(t, err)
		assert.NotEmpty(t, db.query)
	})

	t.Run("surfaces persistence failures to the bus", func(t *testing.T) {
		db := &fakeDB{err: errors.New("table missing")}
		store := NewGrantEventStore(db, newStoreLogger())

		err := store.HandleEvent(context.Background(), events.New(events.EventFailed, "sync", uuid.New(), nil))
		assert.Error(t, err)
	})
}
