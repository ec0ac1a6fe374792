// Package wsclient mirrors a remote wsserver's change stream into a
// local store.Store (spec §4.6 "WebSocket Client"): on connect it
// subscribes to "*", applies node:created/node:updated/node:deleted
// messages to the local store, and reconnects on a fixed delay up to a
// bounded attempt count.
package wsclient

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udlcore/udl/internal/obslog"
	"github.com/udlcore/udl/internal/store"
)

const (
	defaultPingInterval    = 30 * time.Second
	defaultReconnectDelay  = 2 * time.Second
	defaultMaxReconnects   = 10
)

type message struct {
	Type      string          `json:"type"`
	NodeID    string          `json:"nodeId"`
	NodeType  string          `json:"nodeType"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Client connects to a wsserver endpoint and replicates its change
// stream into Store. Zero value is not usable; construct with New.
type Client struct {
	URL   string
	Store *store.Store

	PingInterval   time.Duration
	ReconnectDelay time.Duration
	MaxReconnects  int

	mu       sync.Mutex
	conn     *websocket.Conn
	closed   bool
	closeCh  chan struct{}
	doneCh   chan struct{}
}

// New creates a Client targeting url, replicating changes into s.
func New(url string, s *store.Store) *Client {
	return &Client{
		URL:     url,
		Store:   s,
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

func (c *Client) pingInterval() time.Duration {
	if c.PingInterval > 0 {
		return c.PingInterval
	}
	return defaultPingInterval
}

func (c *Client) reconnectDelay() time.Duration {
	if c.ReconnectDelay > 0 {
		return c.ReconnectDelay
	}
	return defaultReconnectDelay
}

func (c *Client) maxReconnects() int {
	if c.MaxReconnects > 0 {
		return c.MaxReconnects
	}
	return defaultMaxReconnects
}

// Start connects and begins mirroring in the background. Reconnection
// attempts run until MaxReconnects consecutive failures occur or Close
// is called.
func (c *Client) Start() {
	go c.run()
}

// Close is idempotent and suppresses further reconnect attempts (spec
// §4.6).
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	close(c.closeCh)
	if conn != nil {
		conn.Close()
	}
	<-c.doneCh
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) run() {
	defer close(c.doneCh)

	attempts := 0
	for !c.isClosed() {
		conn, _, err := websocket.DefaultDialer.Dial(c.URL, nil)
		if err != nil {
			attempts++
			obslog.Get().Warnw("wsclient connect failed", obslog.FieldError, err, obslog.FieldCount, attempts)
			if attempts >= c.maxReconnects() {
				return
			}
			if !c.sleep(c.reconnectDelay()) {
				return
			}
			continue
		}

		attempts = 0
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		c.subscribeAll(conn)
		c.pumpUntilClosed(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		if c.isClosed() {
			return
		}
		if !c.sleep(c.reconnectDelay()) {
			return
		}
	}
}

func (c *Client) sleep(d time.Duration) bool {
	select {
	case <-c.closeCh:
		return false
	case <-time.After(d):
		return true
	}
}

func (c *Client) subscribeAll(conn *websocket.Conn) {
	_ = conn.WriteJSON(map[string]interface{}{"type": "subscribe", "data": "*"})
}

func (c *Client) pumpUntilClosed(conn *websocket.Conn) {
	readErr := make(chan struct{})
	go func() {
		defer close(readErr)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			c.handle(raw)
		}
	}()

	ticker := time.NewTicker(c.pingInterval())
	defer ticker.Stop()

	for {
		select {
		case <-c.closeCh:
			return
		case <-readErr:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(raw []byte) {
	var msg message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}

	switch msg.Type {
	case "node:created", "node:updated":
		var n store.Node
		if len(msg.Data) == 0 || string(msg.Data) == "null" {
			return
		}
		if err := json.Unmarshal(msg.Data, &n); err != nil {
			obslog.Get().Warnw("wsclient failed to decode node payload", obslog.FieldError, err)
			return
		}
		c.Store.Set(&n)
	case "node:deleted":
		c.Store.Delete(msg.NodeID)
	case "connected", "subscribed", "pong":
		// protocol acks, nothing to mirror
	default:
		// unknown message types are ignored
	}
}
