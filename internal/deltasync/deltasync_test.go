package deltasync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udlcore/udl/internal/store"
)

func TestRejectsNonGet(t *testing.T) {
	h := &Handler{Store: store.New()}
	req := httptest.NewRequest(http.MethodPost, "/_sync?since=2026-01-01T00:00:00Z", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	require.Equal(t, http.StatusMethodNotAllowed, rw.Code)
}

func TestRejectsMissingSince(t *testing.T) {
	h := &Handler{Store: store.New()}
	req := httptest.NewRequest(http.MethodGet, "/_sync", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	require.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestRejectsUnparseableSince(t *testing.T) {
	h := &Handler{Store: store.New()}
	req := httptest.NewRequest(http.MethodGet, "/_sync?since=not-a-date", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	require.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestReturnsUpdatedNodesAfterSince(t *testing.T) {
	s := store.New()
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Set(&store.Node{Internal: store.Internal{ID: "old", Type: "widget", ModifiedAt: since.Add(-time.Hour).UnixMilli()}})
	s.Set(&store.Node{Internal: store.Internal{ID: "new", Type: "widget", ModifiedAt: since.Add(time.Hour).UnixMilli()}})

	h := &Handler{Store: s, Now: func() time.Time { return since.Add(2 * time.Hour) }}
	req := httptest.NewRequest(http.MethodGet, "/_sync?since="+since.Format(time.RFC3339Nano), nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	require.Equal(t, http.StatusOK, rw.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &resp))
	require.Len(t, resp.Updated, 1)
	require.Equal(t, "new", resp.Updated[0].Internal.ID)
	require.False(t, resp.HasMore)
}

func TestFiltersByType(t *testing.T) {
	s := store.New()
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Set(&store.Node{Internal: store.Internal{ID: "a", Type: "widget", ModifiedAt: since.Add(time.Hour).UnixMilli()}})
	s.Set(&store.Node{Internal: store.Internal{ID: "b", Type: "gadget", ModifiedAt: since.Add(time.Hour).UnixMilli()}})

	h := &Handler{Store: s, Now: func() time.Time { return since.Add(2 * time.Hour) }}
	req := httptest.NewRequest(http.MethodGet, "/_sync?since="+since.Format(time.RFC3339Nano)+"&types=widget", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &resp))
	require.Len(t, resp.Updated, 1)
	require.Equal(t, "a", resp.Updated[0].Internal.ID)
}

func TestIncludesDeletionsSinceTimestamp(t *testing.T) {
	s := store.New()
	log := store.NewDeletionLog()
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	log.Append("gone-before", "widget", "", since.Add(-time.Hour))
	log.Append("gone-after", "widget", "", since.Add(time.Hour))

	h := &Handler{Store: s, DeletionLog: log, Now: func() time.Time { return since.Add(2 * time.Hour) }}
	req := httptest.NewRequest(http.MethodGet, "/_sync?since="+since.Format(time.RFC3339Nano), nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &resp))
	require.Len(t, resp.Deleted, 1)
	require.Equal(t, "gone-after", resp.Deleted[0].NodeID)
}

func TestServerTimeEchoesClock(t *testing.T) {
	s := store.New()
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := since.Add(3 * time.Hour)

	h := &Handler{Store: s, Now: func() time.Time { return now }}
	req := httptest.NewRequest(http.MethodGet, "/_sync?since="+since.Format(time.RFC3339Nano), nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &resp))
	require.Equal(t, now.Format(time.RFC3339Nano), resp.ServerTime)
}
