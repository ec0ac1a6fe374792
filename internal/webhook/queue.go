package webhook

import (
	"sync"
	"time"
)

// State is the WebhookQueue's logical state (spec §4.5 "WebhookQueue").
type State string

const (
	Idle       State = "idle"
	Debouncing State = "debouncing"
	Processing State = "processing"
)

// defaultDebounce is the "default small, e.g. 50ms" value spec §4.5 names.
const defaultDebounce = 50 * time.Millisecond

// Item is one enqueued webhook delivery.
type Item struct {
	PluginName string
	Path       string
	HandlerCtx HandlerContext
}

// BatchProcessor drains a batch of items. It is invoked with the pending
// slice swapped out atomically for a fresh one, so a new enqueue during
// processing starts a new pending slice rather than racing with the batch
// in flight (spec §4.5: "batches do not overlap; batches execute
// serially").
type BatchProcessor func(batch []Item)

// Queue is the single-threaded-logical-timeline debounce/batch machine:
// every Enqueue resets a debounce timer; when it fires (or Flush is
// called explicitly, e.g. by tests), the pending slice is swapped out and
// handed to the processor.
type Queue struct {
	mu         sync.Mutex
	runMu      sync.Mutex // held for a whole batch so batches never overlap
	pending    []Item
	timer      *time.Timer
	debounce   time.Duration
	processor  BatchProcessor
	processing bool
}

// NewQueue creates a Queue with the given debounce window (0 uses the
// spec's default of 50ms) and batch processor.
func NewQueue(debounce time.Duration, processor BatchProcessor) *Queue {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Queue{debounce: debounce, processor: processor}
}

// State reports the queue's current logical state, for observability and
// tests.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case q.processing:
		return Processing
	case len(q.pending) > 0:
		return Debouncing
	default:
		return Idle
	}
}

// Enqueue appends item to the pending slice and (re)starts the debounce
// timer.
func (q *Queue) Enqueue(item Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, item)
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.debounce, q.fire)
}

// Flush forces an immediate batch swap, bypassing the debounce timer.
// Used by tests and any caller that needs synchronous draining.
func (q *Queue) Flush() {
	q.fire()
}

func (q *Queue) fire() {
	q.runMu.Lock()
	defer q.runMu.Unlock()

	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	batch := q.pending
	q.pending = nil
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.processing = true
	q.mu.Unlock()

	if q.processor != nil {
		q.processor(batch)
	}

	q.mu.Lock()
	q.processing = false
	q.mu.Unlock()
}
