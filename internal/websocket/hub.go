// Package websocket pushes inventory events to connected billing screens so
// every open list sees the same availability after a commit.
package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"garagebill/internal/common"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are already enforced by the CORS middleware and the JWT check
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the envelope every message is sent in.
type Event struct {
	Type    string      `json:"type"`
	OwnerID uuid.UUID   `json:"owner_id"`
	Data    interface{} `json:"data,omitempty"`
	SentAt  time.Time   `json:"sent_at"`
}

// Client is a single connected socket belonging to one owner.
type Client struct {
	hub     *Hub
	ownerID uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
}

type ownerMessage struct {
	ownerID uuid.UUID
	payload []byte
}

// Hub keeps the connected clients per owner and fans events out to them.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	broadcast  chan ownerMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan ownerMessage, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run dispatches until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]bool)
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.ownerID] == nil {
				h.clients[client.ownerID] = make(map[*Client]bool)
			}
			h.clients[client.ownerID][client] = true
			h.mu.Unlock()
			log.Printf("WebSocket client connected for owner %s", client.ownerID)
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.ownerID] {
				select {
				case client.send <- msg.payload:
				default:
					// Slow consumer; drop it rather than stall everyone else
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.ownerID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.ownerID)
	}
	log.Printf("WebSocket client disconnected for owner %s", client.ownerID)
}

// Publish queues an event for every client of ownerID. It never blocks;
// events are dropped when the queue is full.
func (h *Hub) Publish(ownerID uuid.UUID, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, OwnerID: ownerID, Data: data, SentAt: time.Now().UTC()})
	if err != nil {
		log.Printf("Failed to encode %s event: %v", eventType, err)
		return
	}
	select {
	case h.broadcast <- ownerMessage{ownerID: ownerID, payload: payload}:
	default:
		log.Printf("WARN: dropping %s event for owner %s, broadcast queue full", eventType, ownerID)
	}
}

// Clients is the number of sockets open for ownerID.
func (h *Hub) Clients(ownerID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[ownerID])
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only keeps the connection alive; clients do not send commands.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
	}
}

// Handler upgrades an authenticated request. The JWT middleware has
// already put the session on the request context.
func (h *Hub) Handler(c echo.Context) error {
	session, ok := common.GetSessionFromContext(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Authentication required", nil))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return nil
	}
	client := &Client{hub: h, ownerID: session.OwnerID, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return nil
}
