package wshub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readNotice(t *testing.T, conn *websocket.Conn) Notice {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var n Notice
	require.NoError(t, json.Unmarshal(data, &n))
	return n
}

func TestGreetingOnConnect(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := dialHub(t, hub)

	greeting := readNotice(t, conn)
	assert.Equal(t, "agent", greeting.Type)
	assert.Contains(t, greeting.Content, "connected")
	assert.Equal(t, 1, hub.Count())
}

func TestBroadcastReachesAllObservers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	first := dialHub(t, hub)
	second := dialHub(t, hub)
	readNotice(t, first)
	readNotice(t, second)

	hub.Broadcast(Notice{Type: "agent", Content: "payout done"})

	for _, conn := range []*websocket.Conn{first, second} {
		n := readNotice(t, conn)
		assert.Equal(t, "agent", n.Type)
		assert.Equal(t, "payout done", n.Content)
	}
}

func TestObserverRemovedOnClose(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := dialHub(t, hub)
	readNotice(t, conn)
	require.Equal(t, 1, hub.Count())

	conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 0 },
		2*time.Second, 10*time.Millisecond)

	// Broadcasting with no observers is a no-op, not a failure
	hub.Broadcast(Notice{Type: "error", Content: "nobody listening"})
}

func TestGreetingAfterFastDisconnect(t *testing.T) {
	hub := NewHub(zap.NewNop())
	obs := &observer{send: make(chan []byte, sendQueueSize)}
	hub.mu.Lock()
	hub.conns[obs] = true
	hub.mu.Unlock()

	// Observer disconnects before the greeting goes out: cleanup removes
	// it from the set and closes its queue, exactly what readPump does.
	hub.mu.Lock()
	delete(hub.conns, obs)
	hub.mu.Unlock()
	close(obs.send)

	assert.NotPanics(t, func() {
		hub.send(obs, Notice{Type: "agent", Content: "connected"})
	})
	assert.Empty(t, obs.send)
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := dialHub(t, hub)
	readNotice(t, conn)

	// Flood well past the per-observer queue without reading; the hub
	// must drop, not stall.
	done := make(chan struct{})
	go func() {
		for i := 0; i < sendQueueSize*10; i++ {
			hub.Broadcast(Notice{Type: "agent", Content: "spam"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow observer")
	}
}
