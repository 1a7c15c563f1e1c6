package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"omnicore-dashboard/internal/events"
	"omnicore-dashboard/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS layer; the token check happens in
		// the auth middleware before the upgrade.
		return true
	},
}

// WSClient represents one user's WebSocket connection
type WSClient struct {
	conn      *websocket.Conn
	send      chan []byte
	hub       *WSHub
	userID    string
	closeChan chan struct{}
}

// WSHub fans pipeline events out to per-user WebSocket connections
type WSHub struct {
	clients     map[*WSClient]bool
	userClients map[string]map[*WSClient]bool
	broadcast   chan []byte
	userCast    chan userMessage
	register    chan *WSClient
	unregister  chan *WSClient
	logger      *logging.Logger
	mu          sync.RWMutex
}

type userMessage struct {
	userID string
	data   []byte
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		clients:     make(map[*WSClient]bool),
		userClients: make(map[string]map[*WSClient]bool),
		broadcast:   make(chan []byte, 256),
		userCast:    make(chan userMessage, 256),
		register:    make(chan *WSClient),
		unregister:  make(chan *WSClient),
		logger:      logging.Default().WithComponent("websocket"),
	}
}

// AttachBus subscribes the hub to the event bus. Events carrying a user id
// reach only that user's connections; the rest go to everyone.
func (h *WSHub) AttachBus(bus *events.EventBus) {
	bus.SubscribeAll(func(event events.Event) {
		if event.UserID != "" {
			h.BroadcastToUser(event.UserID, event)
			return
		}
		h.BroadcastToAll(event)
	})
}

// dropClientLocked removes a client from both lookup maps and closes its
// send channel. Membership in h.clients gates the close, so a client
// dropped for a full buffer and later unregistered is closed exactly once.
// Callers must hold h.mu.
func (h *WSHub) dropClientLocked(client *WSClient) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if client.userID != "" {
		if userClients, ok := h.userClients[client.userID]; ok {
			delete(userClients, client)
			if len(userClients) == 0 {
				delete(h.userClients, client.userID)
			}
		}
	}
	close(client.send)
}

// Run starts the hub loop
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if client.userID != "" {
				if h.userClients[client.userID] == nil {
					h.userClients[client.userID] = make(map[*WSClient]bool)
				}
				h.userClients[client.userID][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.dropClientLocked(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.dropClientLocked(client)
				}
			}
			h.mu.Unlock()

		case userMsg := <-h.userCast:
			h.mu.Lock()
			if userClients, ok := h.userClients[userMsg.userID]; ok {
				for client := range userClients {
					select {
					case client.send <- userMsg.data:
					default:
						h.dropClientLocked(client)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToUser sends an event to a specific user's connections
func (h *WSHub) BroadcastToUser(userID string, event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to marshal user event")
		return
	}

	select {
	case h.userCast <- userMessage{userID: userID, data: data}:
	default:
		h.logger.WithField("user_id", userID).Warn("User broadcast channel full, dropping message")
	}
}

// BroadcastToAll sends an event to all connected clients
func (h *WSHub) BroadcastToAll(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to marshal event")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Broadcast channel full, dropping message")
	}
}

// UserClientCount returns the number of connected clients for a user
func (h *WSHub) UserClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if userClients, ok := h.userClients[userID]; ok {
		return len(userClients)
	}
	return 0
}

// writePump pumps messages from the hub to the websocket connection
func (c *WSClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closeChan:
			return
		}
	}
}

// readPump drains the connection so pings and close frames are handled
func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		close(c.closeChan)
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Debug("WebSocket read error")
			}
			break
		}
	}
}

// handleWebSocket upgrades an authenticated request into an event stream
func (s *Server) handleWebSocket(c *gin.Context) {
	userID, ok := s.getUserIDRequired(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to upgrade connection")
		return
	}

	client := &WSClient{
		conn:      conn,
		send:      make(chan []byte, 256),
		hub:       s.hub,
		userID:    userID,
		closeChan: make(chan struct{}),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
