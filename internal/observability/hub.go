package observability

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"transcribe-cli/internal/models"
	"transcribe-cli/internal/observability/logging"
)

// Hub fans transcript events out to websocket clients so a browser can
// watch the session live. Events arriving with no clients connected
// are dropped.
type Hub struct {
	broadcast  chan any
	register   chan *websocket.Conn
	unregister chan *websocket.Conn

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

// NewHub creates a hub. Call Run before serving connections.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan any, 100),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		clients:    make(map[*websocket.Conn]bool),
	}
}

// Run dispatches events until stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	logger := logging.WithComponent("live-hub")
	for {
		select {
		case <-stop:
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug().Int("clients", total).Msg("Live viewer connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug().Int("clients", total).Msg("Live viewer disconnected")

		case event := <-h.broadcast:
			// Write lock: failed writers are evicted while iterating.
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(event); err != nil {
					logger.Debug().Err(err).Msg("Live viewer write failed")
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastPartial queues a partial event for connected viewers.
func (h *Hub) BroadcastPartial(ev models.TranscriptPartial) {
	select {
	case h.broadcast <- ev:
	default:
	}
}

// BroadcastFinal queues a final event for connected viewers.
func (h *Hub) BroadcastFinal(ev models.TranscriptFinal) {
	select {
	case h.broadcast <- ev:
	default:
	}
}

// Loopback only; the status server binds to localhost.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades the request and registers the connection.
func (h *Hub) Handler() http.HandlerFunc {
	logger := logging.WithComponent("live-hub")
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("Websocket upgrade failed")
			return
		}
		h.register <- conn

		go func() {
			defer func() { h.unregister <- conn }()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
