package sinks

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Uranury/sensornet/sensors"
)

const (
	// writeWait bounds a single write to a client.
	writeWait = 5 * time.Second
	// sendBuffer is how many readings may queue for one client before it is
	// dropped as too slow.
	sendBuffer = 16
)

// Hub keeps the connected websocket clients and pushes readings to them.
// Each client has its own queue and writer goroutine, so a client that stops
// reading never blocks Broadcast.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	clients map[*wsClient]bool
}

type wsClient struct {
	conn *websocket.Conn
	send chan SensorData
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*wsClient]bool),
	}
}

// ServeWS upgrades the request and holds the connection until the client
// goes away.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn, send: make(chan SensorData, sendBuffer)}
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Infof("Client connected. Total clients: %d", total)

	go h.writePump(client)

	defer func() {
		h.mu.Lock()
		h.removeLocked(client)
		total := len(h.clients)
		h.mu.Unlock()
		h.logger.Infof("Client disconnected. Total clients: %d", total)
	}()

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends queued readings until the queue is closed or a write fails.
func (h *Hub) writePump(client *wsClient) {
	for data := range client.send {
		err := client.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err == nil {
			err = client.conn.WriteJSON(data)
		}
		if err != nil {
			h.logger.Warnw("websocket write failed", "error", err)
			// unblocks the read loop in ServeWS, which unregisters the client
			client.conn.Close()
			return
		}
	}
}

// Broadcast queues data for every client. Clients whose queue is full are
// disconnected.
func (h *Hub) Broadcast(data SensorData) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warnw("dropping slow websocket client", "remote", client.conn.RemoteAddr().String())
			h.removeLocked(client)
			client.conn.Close()
		}
	}
}

func (h *Hub) removeLocked(client *wsClient) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.removeLocked(client)
		client.conn.Close()
	}
}

// For returns an observer that broadcasts the readings of src.
func (h *Hub) For(src Source) sensors.Observer {
	return &hubObserver{hub: h, source: src}
}

type hubObserver struct {
	hub    *Hub
	source Source
}

func (o *hubObserver) Update(value float64) {
	o.hub.Broadcast(NewSensorData(o.source, value, time.Now()))
}
