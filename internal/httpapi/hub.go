package httpapi

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hive-mind/coordinator/internal/coordinator"
)

// websocketBufferSize bounds how many queued frames a slow client may
// accumulate before it is dropped.
const websocketBufferSize = 256

// client is one subscribed websocket connection.
type client struct {
	hub  *hub
	conn *websocket.Conn
	send chan []byte
}

// hub fans SystemEvents out to every connected websocket client, grounded
// on internal/server/hub.go's register/unregister/broadcast Hub pattern,
// generalized from dashboard state/alert/activity messages to
// coordinator.SystemEvent frames.
type hub struct {
	mu         sync.RWMutex
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
}

func newHub() *hub {
	return &hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, websocketBufferSize),
	}
}

// run drains register/unregister/broadcast until stop is closed.
func (h *hub) run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *hub) broadcastEvent(evt coordinator.SystemEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

// pumpFromCoordinator bridges the Coordinator's subscription channel onto
// the hub's broadcast channel until the subscription is cancelled.
func (h *hub) pumpFromCoordinator(events <-chan coordinator.SystemEvent) {
	for evt := range events {
		h.broadcastEvent(evt)
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
		// the subscribe stream is one-directional; inbound frames are discarded
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
