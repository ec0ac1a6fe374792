// Package events implements the process-wide change bus: the in-memory
// pub/sub of node lifecycle events that feeds the WebSocket broadcaster
// and anything else that wants to react to store mutations (spec §4.1
// overview, §3 "Change event"). The codegen watch loop does not
// subscribe here; it watches files on disk.
package events

import (
	"sync"
	"time"

	"github.com/udlcore/udl/internal/store"
)

type Kind string

const (
	Created Kind = "created"
	Updated Kind = "updated"
	Deleted Kind = "deleted"
)

// Change is the tagged event variant from spec §3.
type Change struct {
	Type      Kind
	NodeID    string
	NodeType  string
	Node      *store.Node // nil for Deleted
	Timestamp time.Time
}

const subscriberBufferSize = 64

// Bus is a process-wide singleton-style pub/sub, owned by the runtime
// object rather than a true package global (spec §9 "Global registries").
type Bus struct {
	mu          sync.RWMutex
	subscribers map[chan Change]struct{}
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[chan Change]struct{})}
}

// Subscribe returns a channel that receives every future Change. The
// channel is buffered; once a slow consumer's buffer is full, further
// Changes are dropped for it and never delivered — Publish never blocks
// on a subscriber (spec §5: the broadcaster's sends must be non-blocking).
func (b *Bus) Subscribe() chan Change {
	ch := make(chan Change, subscriberBufferSize)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch. Safe to call once per channel
// returned from Subscribe.
func (b *Bus) Unsubscribe(ch chan Change) {
	b.mu.Lock()
	_, ok := b.subscribers[ch]
	delete(b.subscribers, ch)
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Publish fans Change out to every current subscriber without blocking.
func (b *Bus) Publish(c Change) {
	b.mu.RLock()
	subs := make([]chan Change, 0, len(b.subscribers))
	for ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- c:
		default:
			// Subscriber buffer full — drop rather than block the publisher.
		}
	}
}

// Reset unsubscribes and closes every subscriber. Used by tests and on
// runtime shutdown.
func (b *Bus) Reset() {
	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = make(map[chan Change]struct{})
	b.mu.Unlock()

	for ch := range subs {
		close(ch)
	}
}
