package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/udlcore/udl/internal/httpmw"
	"github.com/udlcore/udl/internal/obslog"
)

// HTTPHandler serves `/_webhooks/<plugin>/<path...>` (spec §4.5): only
// POST is accepted, the body must parse as JSON, an optional signature
// check runs before enqueueing, and the response is always 202 once
// queued — delivery is asynchronous from the caller's perspective.
type HTTPHandler struct {
	Registry *Registry
	Queue    *Queue
	Prefix   string // e.g. "/_webhooks/"; defaults to "/_webhooks/" when empty
}

func (h *HTTPHandler) prefix() string {
	if h.Prefix != "" {
		return h.Prefix
	}
	return "/_webhooks/"
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !httpmw.RequireMethod(w, r, http.MethodPost) {
		return
	}

	pluginName, path, ok := splitWebhookPath(r.URL.Path, h.prefix())
	if !ok {
		httpmw.WriteError(w, http.StatusNotFound, "Unknown webhook path")
		return
	}

	reg, ok := h.Registry.Lookup(pluginName, path)
	if !ok {
		httpmw.WriteError(w, http.StatusNotFound, "Unknown webhook path")
		return
	}

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		httpmw.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var parsed interface{}
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		httpmw.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if reg.VerifySignature != nil && !reg.VerifySignature(r, rawBody) {
		httpmw.WriteError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	h.Queue.Enqueue(Item{
		PluginName: pluginName,
		Path:       path,
		HandlerCtx: HandlerContext{
			PluginName: pluginName,
			Path:       path,
			Request:    r,
			RawBody:    rawBody,
			Body:       parsed,
		},
	})

	obslog.Get().Infow("webhook queued", obslog.FieldPlugin, pluginName, obslog.FieldPath, path)
	_ = httpmw.WriteJSON(w, http.StatusAccepted, map[string]bool{"queued": true})
}

// splitWebhookPath parses "<prefix><plugin>/<path...>" into (plugin, path).
func splitWebhookPath(urlPath, prefix string) (plugin, path string, ok bool) {
	trimmed := strings.TrimPrefix(urlPath, prefix)
	if trimmed == urlPath && prefix != "" {
		return "", "", false
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
