// Package wsserver implements the WebSocket Server (spec §4.6): it
// attaches to an HTTP server at a configured path, tracks one connection
// record per accepted socket, relays change-bus events to subscribers,
// and runs a heartbeat loop that terminates dead connections.
package wsserver

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mr-tron/base58"

	"github.com/udlcore/udl/internal/events"
	"github.com/udlcore/udl/internal/obslog"
)

// WebSocket timeout constants, following the same Gorilla conventions as
// the rest of the module's predecessors.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	maxMessageSize = 1 * 1024 * 1024

	defaultHeartbeatInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// inbound is the shape of a client->server protocol message (spec §4.6).
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// outbound is the shape of every server->client protocol message.
type outbound struct {
	Type      string      `json:"type"`
	NodeID    string      `json:"nodeId,omitempty"`
	NodeType  string      `json:"nodeType,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// newConnID returns a short base58-encoded random id for log correlation,
// the same encoding the teacher uses for its node DIDs.
func newConnID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return base58.Encode(b[:])
}

// conn is one accepted connection's record.
type conn struct {
	id   string
	ws   *websocket.Conn
	send chan outbound

	mu           sync.Mutex
	isAlive      bool
	subscription []string // nil/empty treated as "*" (all types)
	closeOnce    sync.Once
}

func (c *conn) matches(nodeType string) bool {
	c.mu.Lock()
	sub := c.subscription
	c.mu.Unlock()
	if len(sub) == 0 {
		return true
	}
	for _, t := range sub {
		if t == "*" || t == nodeType {
			return true
		}
	}
	return false
}

func (c *conn) setSubscription(sub []string) {
	c.mu.Lock()
	c.subscription = sub
	c.mu.Unlock()
}

func (c *conn) markAlive(alive bool) {
	c.mu.Lock()
	c.isAlive = alive
	c.mu.Unlock()
}

func (c *conn) wasAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isAlive
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.send)
		c.ws.Close()
	})
}

// Server accepts WebSocket connections at a single HTTP path and
// broadcasts store.Node change events to subscribed connections (spec
// §4.6). It is grounded on server/client.go's timeout constants and
// sync.Once-guarded close, and server/broadcast.go's lock-copy-then-send
// fan-out.
type Server struct {
	Bus                 *events.Bus
	HeartbeatInterval    time.Duration

	mu    sync.RWMutex
	conns map[*conn]struct{}

	changeCh chan events.Change
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a Server. Call Start to begin relaying bus events; the
// returned Server's ServeHTTP method can be registered with an
// http.ServeMux independently of Start.
func New(bus *events.Bus) *Server {
	return &Server{
		Bus:   bus,
		conns: make(map[*conn]struct{}),
		done:  make(chan struct{}),
	}
}

func (s *Server) heartbeatInterval() time.Duration {
	if s.HeartbeatInterval > 0 {
		return s.HeartbeatInterval
	}
	return defaultHeartbeatInterval
}

// Start subscribes to the change bus and begins the heartbeat loop. It
// must be called once before connections are accepted.
func (s *Server) Start() {
	s.changeCh = s.Bus.Subscribe()

	s.wg.Add(2)
	go s.relayLoop()
	go s.heartbeatLoop()
}

// Close unsubscribes from the bus, stops the heartbeat, and closes every
// connection (spec §4.6 `close()`).
func (s *Server) Close() {
	close(s.done)
	if s.changeCh != nil {
		s.Bus.Unsubscribe(s.changeCh)
	}

	// Close every connection first: readPump/writePump only return once
	// their socket is closed, and wg.Wait below blocks on those pumps as
	// well as the relay/heartbeat loops.
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.conns = make(map[*conn]struct{})
	s.mu.Unlock()

	for _, c := range conns {
		c.close()
	}

	s.wg.Wait()
}

// ServeHTTP upgrades the request to a WebSocket and registers the new
// connection (spec §4.6 "On accept").
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		obslog.Get().Warnw("websocket upgrade failed", obslog.FieldError, err)
		return
	}

	c := &conn{id: newConnID(), ws: ws, send: make(chan outbound, 64), isAlive: true}

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(2)
	go s.writePump(c)
	go s.readPump(c)

	c.send <- outbound{Type: "connected", Data: map[string]string{"message": "connected"}}
}

func (s *Server) unregister(c *conn) {
	s.mu.Lock()
	_, ok := s.conns[c]
	delete(s.conns, c)
	s.mu.Unlock()
	if ok {
		c.close()
	}
}

func (s *Server) readPump(c *conn) {
	defer s.wg.Done()
	defer s.unregister(c)

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.markAlive(true)
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue // malformed JSON is silently ignored (spec §4.6)
		}

		switch msg.Type {
		case "ping":
			s.sendTo(c, outbound{Type: "pong"})
		case "subscribe":
			sub := parseSubscription(msg.Data)
			c.setSubscription(sub)
			s.sendTo(c, outbound{Type: "subscribed", Data: map[string]interface{}{"types": sub}})
		default:
			// Unknown message types are silently ignored (spec §4.6).
		}
	}
}

// parseSubscription decodes `"*" | string[]` into a subscription slice.
// "*" (or anything that doesn't parse as an array) is normalized to an
// empty slice, which conn.matches treats as "all types".
func parseSubscription(data json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return list
	}
	var star string
	if err := json.Unmarshal(data, &star); err == nil && star == "*" {
		return nil
	}
	return nil
}

func (s *Server) writePump(c *conn) {
	defer s.wg.Done()
	defer c.ws.Close()

	for msg := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteJSON(msg); err != nil {
			return
		}
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	c.ws.WriteMessage(websocket.CloseMessage, []byte{})
}

// sendTo enqueues msg for delivery to c without blocking (spec §5: sends
// must be non-blocking). When c's buffer is full, msg is dropped and
// logged; the connection stays open.
func (s *Server) sendTo(c *conn, msg outbound) {
	select {
	case c.send <- msg:
	default:
		obslog.Get().Warnw("websocket send buffer full, dropping message", obslog.FieldConnID, c.id)
	}
}

func (s *Server) relayLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case change, ok := <-s.changeCh:
			if !ok {
				return
			}
			s.broadcast(change)
		}
	}
}

// broadcast constructs the outbound message for a change event and fans
// it out to every connection whose subscription matches (spec §4.6
// "Outbound broadcast").
func (s *Server) broadcast(change events.Change) {
	var data interface{}
	if change.Node != nil {
		data = change.Node
	}

	msg := outbound{
		Type:      "node:" + string(change.Type),
		NodeID:    change.NodeID,
		NodeType:  change.NodeType,
		Data:      data,
		Timestamp: change.Timestamp.UnixMilli(),
	}

	s.mu.RLock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		if !c.matches(change.NodeType) {
			continue
		}
		s.sendTo(c, msg)
	}
}

func (s *Server) heartbeatLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.heartbeatInterval())
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.beat()
		}
	}
}

// beat implements spec §4.6's per-connection heartbeat contract: a
// connection that didn't answer the previous ping is terminated;
// otherwise it's marked not-alive and pinged again.
func (s *Server) beat() {
	s.mu.RLock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		if !c.wasAlive() {
			s.unregister(c)
			continue
		}
		c.markAlive(false)
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
			s.unregister(c)
		}
	}
}
