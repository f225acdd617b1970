package wshub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout  = 10 * time.Second
	sendQueueSize = 16
)

// Notice - Message pushed to connected observers
type Notice struct {
	Type    string `json:"type"` // "agent" or "error"
	Content string `json:"content"`
}

// Hub - Owns the set of live observer connections. Broadcasts are
// best-effort: a slow or closed observer is skipped, never waited on.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*observer]bool
	upgrader websocket.Upgrader
	log      *zap.Logger
}

type observer struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns: make(map[*observer]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// ServeWS - Upgrade the request, register the observer and greet it
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	obs := &observer{conn: conn, send: make(chan []byte, sendQueueSize)}
	h.mu.Lock()
	h.conns[obs] = true
	h.mu.Unlock()

	// Greeting goes on the queue before readPump exists: only readPump's
	// cleanup closes the send channel, so the enqueue cannot race it.
	h.send(obs, Notice{Type: "agent", Content: "connected: payout notifications live"})

	go obs.writePump()
	go h.readPump(obs)
}

// Broadcast - Fan a notice out to every live observer. Never blocks and
// never reports failure to the caller; the pipeline's HTTP response does
// not depend on observers.
func (h *Hub) Broadcast(n Notice) {
	data, err := json.Marshal(n)
	if err != nil {
		h.log.Error("marshal notice", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for obs := range h.conns {
		select {
		case obs.send <- data:
		default:
			// Queue full: observer is not keeping up, skip this notice.
			// Removal happens on its own close event.
		}
	}
}

// Count - Number of connected observers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// send - Enqueue a notice for one observer. Membership is re-checked
// under the read lock so a send can never hit a channel that readPump's
// cleanup already closed.
func (h *Hub) send(obs *observer, n Notice) {
	data, err := json.Marshal(n)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.conns[obs] {
		return
	}
	select {
	case obs.send <- data:
	default:
	}
}

// readPump - Drain inbound frames until the observer disconnects, then
// drop it from the set
func (h *Hub) readPump(obs *observer) {
	defer func() {
		h.mu.Lock()
		delete(h.conns, obs)
		h.mu.Unlock()
		close(obs.send)
		obs.conn.Close()
	}()
	for {
		if _, _, err := obs.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (o *observer) writePump() {
	for data := range o.send {
		o.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := o.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	o.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
