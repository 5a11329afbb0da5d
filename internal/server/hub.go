package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendBuffer = 16
)

// Hub fans out season state updates to subscribed WebSocket clients. Each
// client subscribes to exactly one season; a slow client is dropped rather
// than allowed to stall the broadcast.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*wsClient]struct{} // seasonID -> clients
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

type wsClient struct {
	hub      *Hub
	seasonID string
	conn     *websocket.Conn
	send     chan []byte
	once     sync.Once
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*wsClient]struct{}),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the connection and subscribes it to the season named by
// the ?season query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	seasonID := r.URL.Query().Get("season")
	if seasonID == "" {
		http.Error(w, "season query parameter required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{
		hub:      h,
		seasonID: seasonID,
		conn:     conn,
		send:     make(chan []byte, wsSendBuffer),
	}
	h.register(c)

	go c.writePump()
	go c.readPump()
}

// Broadcast sends payload to every client subscribed to seasonID.
func (h *Hub) Broadcast(seasonID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[seasonID] {
		select {
		case c.send <- payload:
		default:
			// Slow consumer; drop it.
			go c.close()
		}
	}
}

// CloseAll disconnects every client. Used during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	var all []*wsClient
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.clients = make(map[string]map[*wsClient]struct{})
	h.mu.Unlock()

	for _, c := range all {
		c.closeConn()
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.seasonID]
	if !ok {
		set = make(map[*wsClient]struct{})
		h.clients[c.seasonID] = set
	}
	set[c] = struct{}{}
	wsConnectionsActive.Inc()
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.seasonID]
	if !ok {
		return
	}
	if _, present := set[c]; !present {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.seasonID)
	}
	wsConnectionsActive.Dec()
}

func (c *wsClient) close() {
	c.hub.unregister(c)
	c.closeConn()
}

func (c *wsClient) closeConn() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// readPump discards inbound frames; clients are read-only subscribers. It
// exists to process control frames and detect disconnects.
func (c *wsClient) readPump() {
	defer c.close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
