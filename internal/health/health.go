// Package health implements the `/health` liveness and `/ready`
// readiness endpoints (spec §6). Readiness is a named set of checks, all
// of which must pass for 200. The default set covers the node store and
// basic system resource availability; it has no GraphQL introspection
// check unless the caller supplies one in Handler.Checks.
package health

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/udlcore/udl/internal/httpmw"
	"github.com/udlcore/udl/internal/obslog"
	"github.com/udlcore/udl/internal/store"
	"github.com/udlcore/udl/internal/version"
)

// Check reports whether a named readiness dependency is currently
// healthy. Checks must return promptly — a slow check stalls /ready.
type Check func() bool

// Handler serves /health and /ready.
type Handler struct {
	Store *store.Store

	// Checks is the named set of readiness gates evaluated by /ready.
	// If nil, a default set is built from Store (nodeStore) and
	// SystemCheck (system); callers that want a "graphql" check must
	// supply it explicitly since it depends on an external endpoint.
	Checks map[string]Check

	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) checks() map[string]Check {
	if h.Checks != nil {
		return h.Checks
	}
	return map[string]Check{
		"nodeStore": func() bool { return h.Store != nil },
		"system":    SystemCheck,
	}
}

// HandleHealth serves `GET /health`: 200 `{status, version, timestamp}` regardless
// of dependency state — this endpoint answers "is the process alive",
// not "is it ready to serve".
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !httpmw.RequireMethod(w, r, http.MethodGet) {
		return
	}
	body := map[string]interface{}{
		"status":    "ok",
		"version":   version.Get().Version,
		"timestamp": h.now().Format(time.RFC3339Nano),
	}
	if err := httpmw.WriteJSON(w, http.StatusOK, body); err != nil {
		obslog.Get().Warnw("health write failed", obslog.FieldError, err)
	}
}

// HandleReady serves `GET /ready`: runs every named check and reports
// 200 only if all pass, 503 otherwise, always including the per-check
// results in the body (spec §6).
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if !httpmw.RequireMethod(w, r, http.MethodGet) {
		return
	}

	results := make(map[string]bool)
	allOK := true
	for name, check := range h.checks() {
		ok := check()
		results[name] = ok
		if !ok {
			allOK = false
		}
	}

	status := "ok"
	code := http.StatusOK
	if !allOK {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	body := map[string]interface{}{
		"status":    status,
		"checks":    results,
		"timestamp": h.now().Format(time.RFC3339Nano),
	}
	if err := httpmw.WriteJSON(w, code, body); err != nil {
		obslog.Get().Warnw("ready write failed", obslog.FieldError, err)
	}
}

// SystemCheck reports whether the process can currently read basic
// memory stats — a best-effort proxy for "the host isn't in a state
// where the process can't even introspect itself."
func SystemCheck() bool {
	_, err := mem.VirtualMemory()
	return err == nil
}
