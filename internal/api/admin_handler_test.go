package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/bgbridge/internal/coordinator"
)

type fakeDirectory struct {
	ids    []string
	sealed bool
}

func (d *fakeDirectory) Identifiers() []string { return d.ids }
func (d *fakeDirectory) Sealed() bool          { return d.sealed }

type fakeInspector struct {
	snapshot []coordinator.GrantInfo
	stats    coordinator.Stats
}

func (i *fakeInspector) Snapshot() []coordinator.GrantInfo { return i.snapshot }
func (i *fakeInspector) Stats() coordinator.Stats          { return i.stats }

func newHandler(dir *fakeDirectory, insp *fakeInspector) *AdminHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAdminHandler(dir, insp, logger)
}

func TestListTasks(t *testing.T) {
	handler := newHandler(
		&fakeDirectory{ids: []string{"cleanup", "refresh"}, sealed: true},
		&fakeInspector{},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ListTasks(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Identifiers []string `json:"identifiers"`
		Sealed      bool     `json:"sealed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"cleanup", "refresh"}, body.Identifiers)
	assert.True(t, body.Sealed)
}

func TestListGrants(t *testing.T) {
	handle := uuid.New()
	handler := newHandler(
		&fakeDirectory{},
		&fakeInspector{
			snapshot: []coordinator.GrantInfo{{
				Handle:    handle,
				TaskID:    "refresh",
				StartedAt: time.Now().UTC(),
				Deadline:  time.Now().UTC().Add(30 * time.Second),
			}},
			stats: coordinator.Stats{Granted: 3, Completed: 2, Expired: 1},
		},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/grants", nil)
	rec := httptest.NewRecorder()
	handler.ListGrants(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Active []struct {
			Handle string `json:"handle"`
			TaskID string `json:"task_id"`
		} `json:"active"`
		Stats struct {
			Granted   int64 `json:"granted"`
			Completed int64 `json:"completed"`
			Expired   int64 `json:"expired"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Active, 1)
	assert.Equal(t, handle.String(), body.Active[0].Handle)
	assert.Equal(t, "refresh", body.Active[0].TaskID)
	assert.EqualValues(t, 3, body.Stats.Granted)
	assert.EqualValues(t, 2, body.Stats.Completed)
	assert.EqualValues(t, 1, body.Stats.Expired)
}
