package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs handles websocket requests from the peer.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID string, onQuestion QuestionHandler) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, Send: make(chan []byte, 256), onQuestion: onQuestion}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
