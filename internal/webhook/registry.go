// Package webhook implements the Webhook Pipeline (spec §4.5): a
// per-plugin HTTP registry, the `/_webhooks/<plugin>/<path...>` handler,
// the debouncing WebhookQueue, and the batch processor that drains it.
package webhook

import (
	"net/http"
	"sync"
)

// HandlerContext is passed to a registered handler for each queued item
// (spec §4.5 "Batch processor" — `WebhookHandlerContext`).
type HandlerContext struct {
	PluginName string
	Path       string
	Request    *http.Request
	RawBody    []byte
	Body       interface{} // the parsed JSON body
}

// Handler processes one webhook delivery. Errors are logged by the batch
// processor, not propagated — a single bad item must not abort the batch.
type Handler func(hc HandlerContext) error

// VerifySignature validates a delivery's signature against its raw body,
// e.g. an HMAC over `X-Hub-Signature-256` (spec §4.5 step 3).
type VerifySignature func(r *http.Request, rawBody []byte) bool

// Registration is what a plugin registers for one webhook path.
type Registration struct {
	PluginName      string
	Path            string
	Handler         Handler
	VerifySignature VerifySignature // optional; nil disables signature verification
}

// Registry is the process-wide webhook registration table, keyed by
// (pluginName, path), grounded on plugin/registry.go's mutex-guarded map.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Registration
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Registration)}
}

func key(pluginName, path string) string { return pluginName + "/" + path }

// Register adds reg under (reg.PluginName, reg.Path), replacing any
// previous registration for the same key.
func (r *Registry) Register(reg Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key(reg.PluginName, reg.Path)] = reg
}

// Lookup finds the registration for (pluginName, path), if any.
func (r *Registry) Lookup(pluginName, path string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[key(pluginName, path)]
	return reg, ok
}
