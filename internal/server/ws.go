package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/handpointer/internal/gesture"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StatusHub broadcasts gesture snapshots to websocket clients. Slow clients
// only ever receive the newest snapshot.
type StatusHub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[chan []byte]struct{}
	done    chan struct{}
	closed  bool
}

// NewStatusHub creates a hub with no clients.
func NewStatusHub(logger *zap.Logger) *StatusHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusHub{
		logger:  logger.Named("ws"),
		clients: make(map[chan []byte]struct{}),
		done:    make(chan struct{}),
	}
}

// Publish sends snap to every connected client without blocking.
func (h *StatusHub) Publish(snap gesture.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(snap)
	if err != nil {
		h.logger.Warn("Error encoding snapshot", zap.Error(err))
		return
	}

	for send := range h.clients {
		// Replace a snapshot the client has not picked up yet.
		select {
		case <-send:
		default:
		}
		send <- msg
	}
}

// Clients returns the number of connected clients.
func (h *StatusHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *StatusHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
}

func (h *StatusHub) register() (chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	send := make(chan []byte, 1)
	h.clients[send] = struct{}{}
	return send, true
}

func (h *StatusHub) unregister(send chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, send)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StatusHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send, ok := h.register()
	if !ok {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		return
	}
	defer h.unregister(send)

	// Reading detects the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-h.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeWait))
			conn.Close()
			<-gone
			return
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
				<-gone
				return
			}
		}
	}
}
