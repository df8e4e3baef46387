package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/collisionlab/internal/sim"
	"github.com/vmihailenco/msgpack/v5"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by middleware.WebSocketCORSCheck
	},
}

// Wire formats a viewer can ask for.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Client represents a connected WebSocket viewer
type Client struct {
	conn       *websocket.Conn
	id         string
	simID      string
	format     string
	controller bool // may send commands that change the simulation
	send       chan []byte
}

// Hub maintains the set of active viewers, grouped by simulation
type Hub struct {
	clients    map[string]*Client            // client ID -> Client
	simRooms   map[string]map[string]*Client // sim ID -> client ID -> Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub. Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		simRooms:   make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			if _, exists := h.simRooms[client.simID]; !exists {
				h.simRooms[client.simID] = make(map[string]*Client)
			}
			h.simRooms[client.simID][client.id] = client
			size := len(h.simRooms[client.simID])
			h.mu.Unlock()
			log.Printf("[WS] Viewer %s joined %s (format=%s controller=%t viewers=%d)", client.id, client.simID, client.format, client.controller, size)

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.id]; ok && cur == client {
				delete(h.clients, client.id)
				if room, exists := h.simRooms[client.simID]; exists {
					delete(room, client.id)
					if len(room) == 0 {
						delete(h.simRooms, client.simID)
					}
				}
				close(client.send)
				log.Printf("[WS] Viewer %s left %s", client.id, client.simID)
			}
			h.mu.Unlock()
		}
	}
}

// closeAll drops every connection; the pumps exit on their next I/O.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.conn.Close()
		delete(h.clients, id)
	}
	h.simRooms = make(map[string]map[string]*Client)
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// RoomSize is the number of viewers watching simID.
func (h *Hub) RoomSize(simID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.simRooms[simID])
}

// encode renders v in the client's wire format.
func encode(format string, v interface{}) ([]byte, error) {
	if format == FormatMsgpack {
		return msgpack.Marshal(v)
	}
	return json.Marshal(v)
}

// BroadcastToSim sends an update to every viewer of its simulation. Each
// format is encoded at most once.
func (h *Hub) BroadcastToSim(u sim.Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, exists := h.simRooms[u.SimID]
	if !exists {
		return
	}
	frames := make(map[string][]byte, 2)
	for _, client := range room {
		data, ok := frames[client.format]
		if !ok {
			var err error
			data, err = encode(client.format, u)
			if err != nil {
				log.Printf("[WS] Error encoding %s update for %s: %v", client.format, u.SimID, err)
				return
			}
			frames[client.format] = data
		}
		select {
		case client.send <- data:
		default:
			// Viewer is behind; it will catch up on the next frame
			log.Printf("[WS] Send buffer full for viewer %s in %s, dropping frame", client.id, u.SimID)
		}
	}
}

// Message is an inbound command
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.format == FormatMsgpack {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(frameType, message); err != nil {
				log.Printf("[WS] Write error for viewer %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for viewer %s: %v", c.id, err)
				return
			}
		}
	}
}

// deliver queues a payload for this client only.
func (c *Client) deliver(v interface{}) {
	data, err := encode(c.format, v)
	if err != nil {
		log.Printf("[WS] Error encoding reply for viewer %s: %v", c.id, err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] Reply dropped for viewer %s (buffer full)", c.id)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.deliver(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
