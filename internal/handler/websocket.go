package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/CageChen/devrouter/internal/metrics"
	"github.com/CageChen/devrouter/internal/watcher"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WSHandler pushes filesystem changes to open listing pages
type WSHandler struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	metrics *metrics.Collector
}

// NewWSHandler creates a new WebSocket handler. m may be nil.
func NewWSHandler(m *metrics.Collector) *WSHandler {
	return &WSHandler{
		clients: make(map[*websocket.Conn]bool),
		metrics: m,
	}
}

// HandleWS handles WebSocket upgrade and connection
func (h *WSHandler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer func() {
		h.removeClient(conn)
		_ = conn.Close()
	}()

	h.addClient(conn)

	// Keep connection alive until the page goes away
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

// OnFileChange is called when a file change is detected
func (h *WSHandler) OnFileChange(event watcher.Event) {
	msg := WSMessage{
		Type: "fsChange",
		Payload: map[string]string{
			"event": event.Type.String(),
			"path":  event.URL,
			"dir":   event.Dir,
		},
	}

	h.broadcast(msg)
}

// ClientCount returns the number of connected pages.
func (h *WSHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WSHandler) addClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	h.metrics.SetReloadClients(len(h.clients))
}

func (h *WSHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	h.metrics.SetReloadClients(len(h.clients))
}

func (h *WSHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			h.removeClient(client)
		}
	}
}
