package wsclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/udlcore/udl/internal/store"
)

var upgrader = websocket.Upgrader{}

// echoServer is a minimal stand-in for wsserver that records what it was
// asked to subscribe to and lets the test push raw frames to the client.
type echoServer struct {
	t        *testing.T
	conn     *websocket.Conn
	ready    chan struct{}
	received chan map[string]interface{}
}

func newEchoServer(t *testing.T) *echoServer {
	return &echoServer{t: t, ready: make(chan struct{}), received: make(chan map[string]interface{}, 8)}
}

func (e *echoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	require.NoError(e.t, err)
	e.conn = conn
	close(e.ready)

	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		select {
		case e.received <- msg:
		default:
		}
	}
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestStartSubscribesToAll(t *testing.T) {
	es := newEchoServer(t)
	srv := httptest.NewServer(es)
	defer srv.Close()

	s := store.New()
	c := New(wsURL(srv.URL), s)
	c.Start()
	defer c.Close()

	select {
	case msg := <-es.received:
		require.Equal(t, "subscribe", msg["type"])
		require.Equal(t, "*", msg["data"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscribe message")
	}
}

func TestCreatedMessageUpsertsLocalNode(t *testing.T) {
	es := newEchoServer(t)
	srv := httptest.NewServer(es)
	defer srv.Close()

	s := store.New()
	c := New(wsURL(srv.URL), s)
	c.Start()
	defer c.Close()

	<-es.ready
	require.NoError(t, es.conn.WriteJSON(map[string]interface{}{
		"type":     "node:created",
		"nodeId":   "n1",
		"nodeType": "widget",
		"data": map[string]interface{}{
			"internal": map[string]interface{}{"id": "n1", "type": "widget"},
		},
	}))

	require.Eventually(t, func() bool {
		return s.Get("n1") != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDeletedMessageRemovesLocalNode(t *testing.T) {
	es := newEchoServer(t)
	srv := httptest.NewServer(es)
	defer srv.Close()

	s := store.New()
	s.Set(&store.Node{Internal: store.Internal{ID: "n1", Type: "widget"}})

	c := New(wsURL(srv.URL), s)
	c.Start()
	defer c.Close()

	<-es.ready
	require.NoError(t, es.conn.WriteJSON(map[string]interface{}{
		"type":   "node:deleted",
		"nodeId": "n1",
	}))

	require.Eventually(t, func() bool {
		return s.Get("n1") == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	es := newEchoServer(t)
	srv := httptest.NewServer(es)
	defer srv.Close()

	s := store.New()
	c := New(wsURL(srv.URL), s)
	c.Start()
	<-es.ready

	c.Close()
	c.Close() // must not panic or block
}
