package webhook

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/udlcore/udl/internal/obslog"
)

// BroadcastFunc notifies observers (typically the WebSocket broadcaster)
// that a webhook was received — spec §4.5: "The processor MAY broadcast a
// `webhook:received` WebSocket message for observability."
type BroadcastFunc func(pluginName, path string)

// Dispatcher is the batch processor wired onto a Queue: for each item it
// looks up the registered handler, applies a per-plugin rate limit, and
// invokes the handler, logging rather than propagating any error (spec
// §4.5 "any thrown error is logged and does not abort the batch").
type Dispatcher struct {
	Registry  *Registry
	Broadcast BroadcastFunc // optional

	// RateLimit/RateBurst configure the per-plugin limiter created lazily
	// on first use. Zero RateLimit disables limiting (unlimited).
	RateLimit rate.Limit
	RateBurst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Process is the BatchProcessor entry point: drains one batch serially,
// in enqueue order, exactly as spec §4.5 describes.
func (d *Dispatcher) Process(batch []Item) {
	for _, item := range batch {
		d.processOne(item)
	}
}

func (d *Dispatcher) processOne(item Item) {
	reg, ok := d.Registry.Lookup(item.PluginName, item.Path)
	if !ok {
		obslog.Get().Warnw("webhook batch item has no registered handler",
			obslog.FieldPlugin, item.PluginName, obslog.FieldPath, item.Path)
		return
	}

	if limiter := d.limiterFor(item.PluginName); limiter != nil && !limiter.Allow() {
		obslog.Get().Warnw("webhook handler rate limited",
			obslog.FieldPlugin, item.PluginName, obslog.FieldPath, item.Path)
		return
	}

	if reg.Handler == nil {
		return
	}
	if err := reg.Handler(item.HandlerCtx); err != nil {
		obslog.Get().Errorw("webhook handler failed",
			obslog.FieldPlugin, item.PluginName, obslog.FieldPath, item.Path, obslog.FieldError, err)
		return
	}

	if d.Broadcast != nil {
		d.Broadcast(item.PluginName, item.Path)
	}
}

func (d *Dispatcher) limiterFor(pluginName string) *rate.Limiter {
	if d.RateLimit <= 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.limiters == nil {
		d.limiters = make(map[string]*rate.Limiter)
	}
	l, ok := d.limiters[pluginName]
	if !ok {
		burst := d.RateBurst
		if burst <= 0 {
			burst = 1
		}
		l = rate.NewLimiter(d.RateLimit, burst)
		d.limiters[pluginName] = l
	}
	return l
}
