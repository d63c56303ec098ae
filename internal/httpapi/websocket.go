package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: checkWebSocketOrigin,
}

// handleSubscribe upgrades to a websocket connection and registers it with
// the hub, which then streams every SystemEvent the Coordinator emits as a
// JSON frame.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{hub: s.hub, conn: conn, send: make(chan []byte, websocketBufferSize)}
	s.hub.register <- c

	go c.writePump()
	go c.readPump()
}
