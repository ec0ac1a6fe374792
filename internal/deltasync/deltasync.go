// Package deltasync implements the `GET /_sync` endpoint (spec §4.7):
// nodes modified and deletions recorded since a caller-supplied
// timestamp, plus the server's own clock reading so the client can use
// it verbatim as the next `since` and avoid clock-skew gaps.
package deltasync

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/udlcore/udl/internal/httpmw"
	"github.com/udlcore/udl/internal/obslog"
	"github.com/udlcore/udl/internal/store"
)

// Response is the `GET /_sync` payload (spec §4.7).
type Response struct {
	Updated    []*store.Node    `json:"updated"`
	Deleted    []store.Deletion `json:"deleted"`
	ServerTime string           `json:"serverTime"`
	HasMore    bool             `json:"hasMore"`
}

// Handler serves `/_sync` by diffing Store and DeletionLog against the
// `since` query parameter.
type Handler struct {
	Store       *store.Store
	DeletionLog *store.DeletionLog

	// Now defaults to time.Now; tests substitute a fixed clock.
	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !httpmw.RequireMethod(w, r, http.MethodGet) {
		return
	}

	sinceParam := r.URL.Query().Get("since")
	if sinceParam == "" {
		httpmw.WriteError(w, http.StatusBadRequest, "Missing required parameter: since")
		return
	}
	since, err := time.Parse(time.RFC3339Nano, sinceParam)
	if err != nil {
		httpmw.WriteError(w, http.StatusBadRequest, "Invalid since parameter: must be ISO-8601")
		return
	}

	var types map[string]bool
	if raw := r.URL.Query().Get("types"); raw != "" {
		types = make(map[string]bool)
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types[t] = true
			}
		}
	}

	now := h.now()
	sinceMillis := since.UnixMilli()

	updated := make([]*store.Node, 0)
	for _, n := range h.Store.GetAll() {
		if n.Internal.ModifiedAt <= sinceMillis {
			continue
		}
		if len(types) > 0 && !types[n.Internal.Type] {
			continue
		}
		updated = append(updated, n)
	}
	sort.Slice(updated, func(i, j int) bool {
		if updated[i].Internal.ModifiedAt != updated[j].Internal.ModifiedAt {
			return updated[i].Internal.ModifiedAt < updated[j].Internal.ModifiedAt
		}
		return updated[i].Internal.ID < updated[j].Internal.ID
	})

	var deleted []store.Deletion
	if h.DeletionLog != nil {
		deleted = h.DeletionLog.Since(since, now, types)
	}
	sort.Slice(deleted, func(i, j int) bool {
		if !deleted[i].DeletedAt.Equal(deleted[j].DeletedAt) {
			return deleted[i].DeletedAt.Before(deleted[j].DeletedAt)
		}
		return deleted[i].NodeID < deleted[j].NodeID
	})

	resp := Response{
		Updated:    updated,
		Deleted:    deleted,
		ServerTime: now.Format(time.RFC3339Nano),
		HasMore:    false,
	}

	if err := httpmw.WriteJSON(w, http.StatusOK, resp); err != nil {
		obslog.Get().Warnw("deltasync write failed", obslog.FieldError, err)
	}
}
