package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client represents a WebSocket client connection
type Client struct {
	ID       string
	UserID   int64
	Conn     *websocket.Conn
	Send     chan []byte
	hub      *Hub
	roomID   string
	closedMu sync.Mutex
	closed   bool
}

// Hub manages WebSocket connections grouped into per-project rooms
type Hub struct {
	rooms map[string]map[*Client]bool

	broadcast  chan *broadcastMessage
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *zap.Logger
	ctx    context.Context
}

type broadcastMessage struct {
	roomID  string
	message []byte
	exclude *Client
}

// NewHub creates a hub and starts its event loop
func NewHub(ctx context.Context, logger *zap.Logger) *Hub {
	h := &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *broadcastMessage, 256),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		logger:     logger,
		ctx:        ctx,
	}

	go h.run()

	return h
}

// run processes hub events
func (h *Hub) run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("Event hub shutting down")
			h.closeAllConnections()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToRoom(msg)

		case <-ticker.C:
			h.mu.RLock()
			roomCount := len(h.rooms)
			clientCount := 0
			for _, clients := range h.rooms {
				clientCount += len(clients)
			}
			h.mu.RUnlock()

			h.logger.Debug("Event hub stats",
				zap.Int("rooms", roomCount),
				zap.Int("clients", clientCount),
			)
		}
	}
}

// RegisterClient joins a client to a project room
func (h *Hub) RegisterClient(client *Client, roomID string) {
	client.hub = h
	client.roomID = roomID
	h.register <- client
}

// UnregisterClient removes a client from its room
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// Publish marshals an event envelope and broadcasts it to a project room.
// Marshal failures are logged and dropped; pushes are best-effort.
func (h *Hub) Publish(roomID, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal event payload",
			zap.String("type", eventType),
			zap.Error(err),
		)
		return
	}

	msg, err := json.Marshal(Envelope{Type: eventType, Payload: data})
	if err != nil {
		h.logger.Error("Failed to marshal event envelope",
			zap.String("type", eventType),
			zap.Error(err),
		)
		return
	}

	h.broadcast <- &broadcastMessage{roomID: roomID, message: msg}
}

// registerClient adds a client to a room and starts its pumps
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[client.roomID] == nil {
		h.rooms[client.roomID] = make(map[*Client]bool)
	}

	h.rooms[client.roomID][client] = true

	h.logger.Info("Client joined room",
		zap.String("client_id", client.ID),
		zap.Int64("user_id", client.UserID),
		zap.String("room_id", client.roomID),
		zap.Int("room_size", len(h.rooms[client.roomID])),
	)

	go client.writePump()
	go client.readPump()
}

// unregisterClient removes a client from a room
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.rooms[client.roomID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)

			client.closedMu.Lock()
			if !client.closed {
				close(client.Send)
				client.closed = true
			}
			client.closedMu.Unlock()

			if len(clients) == 0 {
				delete(h.rooms, client.roomID)
			}

			h.logger.Info("Client left room",
				zap.String("client_id", client.ID),
				zap.String("room_id", client.roomID),
				zap.Int("room_size", len(clients)),
			)
		}
	}
}

// broadcastToRoom sends a message to all clients in a room
func (h *Hub) broadcastToRoom(msg *broadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, exists := h.rooms[msg.roomID]
	if !exists {
		return
	}

	for client := range clients {
		if msg.exclude != nil && client == msg.exclude {
			continue
		}

		// Non-blocking send
		select {
		case client.Send <- msg.message:
		default:
			// Client's send buffer is full, skip
			h.logger.Warn("Client send buffer full, dropping message",
				zap.String("client_id", client.ID),
			)
		}
	}
}

// closeAllConnections closes all client connections
func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID, clients := range h.rooms {
		for client := range clients {
			client.closedMu.Lock()
			if !client.closed {
				close(client.Send)
				client.closed = true
				client.Conn.Close()
			}
			client.closedMu.Unlock()
		}
		delete(h.rooms, roomID)
	}
}

// RoomSize returns the number of clients in a room
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, exists := h.rooms[roomID]; exists {
		return len(clients)
	}
	return 0
}

// Constants for WebSocket configuration
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64 KB
)

// readPump drains messages from the connection. Board clients are
// listen-only; anything they send is discarded, but the read loop is what
// notices the peer going away.
func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket read error",
					zap.String("client_id", c.ID),
					zap.Error(err),
				)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
