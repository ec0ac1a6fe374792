package wsserver

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/udlcore/udl/internal/events"
	"github.com/udlcore/udl/internal/store"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return c
}

func readMsg(t *testing.T, c *websocket.Conn) outbound {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg outbound
	require.NoError(t, c.ReadJSON(&msg))
	return msg
}

func TestAcceptSendsConnected(t *testing.T) {
	bus := events.NewBus()
	s := New(bus)
	s.Start()
	defer s.Close()

	srv := httptest.NewServer(s)
	defer srv.Close()

	c := dial(t, srv.URL)
	defer c.Close()

	msg := readMsg(t, c)
	require.Equal(t, "connected", msg.Type)
}

func TestPingReplyPong(t *testing.T) {
	bus := events.NewBus()
	s := New(bus)
	s.Start()
	defer s.Close()

	srv := httptest.NewServer(s)
	defer srv.Close()

	c := dial(t, srv.URL)
	defer c.Close()
	readMsg(t, c) // connected

	require.NoError(t, c.WriteJSON(map[string]string{"type": "ping"}))
	msg := readMsg(t, c)
	require.Equal(t, "pong", msg.Type)
}

func TestSubscribeUpdatesFilterAndAcks(t *testing.T) {
	bus := events.NewBus()
	s := New(bus)
	s.Start()
	defer s.Close()

	srv := httptest.NewServer(s)
	defer srv.Close()

	c := dial(t, srv.URL)
	defer c.Close()
	readMsg(t, c) // connected

	require.NoError(t, c.WriteJSON(map[string]interface{}{"type": "subscribe", "data": []string{"widget"}}))
	msg := readMsg(t, c)
	require.Equal(t, "subscribed", msg.Type)

	// Give the read pump time to apply the subscription before publishing.
	time.Sleep(30 * time.Millisecond)

	bus.Publish(events.Change{Type: events.Created, NodeID: "n1", NodeType: "gadget", Timestamp: time.Now()})
	bus.Publish(events.Change{Type: events.Created, NodeID: "n2", NodeType: "widget", Timestamp: time.Now()})

	msg = readMsg(t, c)
	require.Equal(t, "n2", msg.NodeID)
}

func TestUnknownMessageTypeIgnored(t *testing.T) {
	bus := events.NewBus()
	s := New(bus)
	s.Start()
	defer s.Close()

	srv := httptest.NewServer(s)
	defer srv.Close()

	c := dial(t, srv.URL)
	defer c.Close()
	readMsg(t, c) // connected

	require.NoError(t, c.WriteJSON(map[string]string{"type": "nonsense"}))
	require.NoError(t, c.WriteJSON(map[string]string{"type": "ping"}))
	msg := readMsg(t, c)
	require.Equal(t, "pong", msg.Type)
}

func TestMalformedJSONIgnored(t *testing.T) {
	bus := events.NewBus()
	s := New(bus)
	s.Start()
	defer s.Close()

	srv := httptest.NewServer(s)
	defer srv.Close()

	c := dial(t, srv.URL)
	defer c.Close()
	readMsg(t, c) // connected

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, c.WriteJSON(map[string]string{"type": "ping"}))
	msg := readMsg(t, c)
	require.Equal(t, "pong", msg.Type)
}

func TestBroadcastIncludesNodeData(t *testing.T) {
	bus := events.NewBus()
	s := New(bus)
	s.Start()
	defer s.Close()

	srv := httptest.NewServer(s)
	defer srv.Close()

	c := dial(t, srv.URL)
	defer c.Close()
	readMsg(t, c) // connected

	n := &store.Node{Internal: store.Internal{ID: "n1", Type: "widget"}, Fields: map[string]interface{}{"a": 1}}
	bus.Publish(events.Change{Type: events.Created, NodeID: "n1", NodeType: "widget", Node: n, Timestamp: time.Now()})

	msg := readMsg(t, c)
	require.Equal(t, "node:created", msg.Type)
	require.NotNil(t, msg.Data)

	raw, err := json.Marshal(msg.Data)
	require.NoError(t, err)
	require.Contains(t, string(raw), "n1")
}

func TestHeartbeatTerminatesDeadConnection(t *testing.T) {
	bus := events.NewBus()
	s := New(bus)
	s.HeartbeatInterval = 20 * time.Millisecond
	s.Start()
	defer s.Close()

	srv := httptest.NewServer(s)
	defer srv.Close()

	c := dial(t, srv.URL)
	defer c.Close()
	readMsg(t, c) // connected

	// Don't respond to pings; after two heartbeat ticks the server should
	// have marked the connection not-alive and then terminated it.
	time.Sleep(80 * time.Millisecond)

	s.mu.RLock()
	n := len(s.conns)
	s.mu.RUnlock()
	require.Equal(t, 0, n)
}

func TestCloseClosesAllConnections(t *testing.T) {
	bus := events.NewBus()
	s := New(bus)
	s.Start()

	srv := httptest.NewServer(s)
	defer srv.Close()

	c := dial(t, srv.URL)
	defer c.Close()
	readMsg(t, c) // connected

	s.Close()

	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := c.ReadMessage()
	require.Error(t, err)
}
