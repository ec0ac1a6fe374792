package webhook

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestHTTPHandlerRejectsNonPost(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Registration{PluginName: "p", Path: "hook", Handler: func(HandlerContext) error { return nil }})
	h := &HTTPHandler{Registry: reg, Queue: NewQueue(time.Millisecond, func([]Item) {})}

	req := httptest.NewRequest(http.MethodGet, "/_webhooks/p/hook", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rw.Code)
}

func TestHTTPHandlerRejectsInvalidJSON(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Registration{PluginName: "p", Path: "hook", Handler: func(HandlerContext) error { return nil }})
	h := &HTTPHandler{Registry: reg, Queue: NewQueue(time.Millisecond, func([]Item) {})}

	req := httptest.NewRequest(http.MethodPost, "/_webhooks/p/hook", bytes.NewBufferString("not json"))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	assert.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestHTTPHandlerRejectsBadSignature(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Registration{
		PluginName:      "p",
		Path:            "hook",
		Handler:         func(HandlerContext) error { return nil },
		VerifySignature: func(r *http.Request, body []byte) bool { return false },
	})
	h := &HTTPHandler{Registry: reg, Queue: NewQueue(time.Millisecond, func([]Item) {})}

	req := httptest.NewRequest(http.MethodPost, "/_webhooks/p/hook", bytes.NewBufferString(`{}`))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	assert.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestHTTPHandlerQueuesAndReturns202(t *testing.T) {
	var mu sync.Mutex
	var got []Item
	reg := NewRegistry()
	reg.Register(Registration{PluginName: "p", Path: "hook", Handler: func(HandlerContext) error { return nil }})

	q := NewQueue(time.Millisecond, func(batch []Item) {
		mu.Lock()
		got = append(got, batch...)
		mu.Unlock()
	})
	h := &HTTPHandler{Registry: reg, Queue: q}

	req := httptest.NewRequest(http.MethodPost, "/_webhooks/p/hook", bytes.NewBufferString(`{"a":1}`))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	require.Equal(t, http.StatusAccepted, rw.Code)

	q.Flush()
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "p", got[0].PluginName)
}

func TestQueueDebouncesRapidEnqueues(t *testing.T) {
	var batches [][]Item
	var mu sync.Mutex
	q := NewQueue(20*time.Millisecond, func(batch []Item) {
		mu.Lock()
		batches = append(batches, batch)
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		q.Enqueue(Item{PluginName: "p", Path: "x"})
	}

	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 5)
}

func TestQueueFlushIsNoOpWhenEmpty(t *testing.T) {
	called := false
	q := NewQueue(time.Millisecond, func(batch []Item) { called = true })
	q.Flush()
	assert.False(t, called)
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	reg := NewRegistry()
	var processed []string
	reg.Register(Registration{PluginName: "p", Path: "fails", Handler: func(HandlerContext) error {
		return assert.AnError
	}})
	reg.Register(Registration{PluginName: "p", Path: "ok", Handler: func(HandlerContext) error {
		processed = append(processed, "ok")
		return nil
	}})

	d := &Dispatcher{Registry: reg}
	d.Process([]Item{
		{PluginName: "p", Path: "fails"},
		{PluginName: "p", Path: "ok"},
	})

	assert.Equal(t, []string{"ok"}, processed)
}

func TestDispatcherRateLimitsPerPlugin(t *testing.T) {
	reg := NewRegistry()
	var calls int
	reg.Register(Registration{PluginName: "p", Path: "x", Handler: func(HandlerContext) error {
		calls++
		return nil
	}})

	d := &Dispatcher{Registry: reg, RateLimit: rate.Limit(0.0001), RateBurst: 1}
	d.Process([]Item{{PluginName: "p", Path: "x"}, {PluginName: "p", Path: "x"}})

	assert.Equal(t, 1, calls)
}

func TestDispatcherBroadcastsAfterSuccess(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Registration{PluginName: "p", Path: "x", Handler: func(HandlerContext) error { return nil }})

	var broadcast bool
	d := &Dispatcher{Registry: reg, Broadcast: func(pluginName, path string) { broadcast = true }}
	d.Process([]Item{{PluginName: "p", Path: "x"}})

	assert.True(t, broadcast)
}
