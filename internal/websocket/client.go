package websocket

import (
	"encoding/json"
	"strings"
	"time"

	"multistep-rag-be/internal/dto"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// QuestionHandler runs one question for a session and delivers frames through the hub
type QuestionHandler func(sessionID, question string)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	SessionID string

	// Buffered channel of outbound messages.
	Send chan []byte

	onQuestion QuestionHandler
}

// readPump turns inbound {"question": "..."} messages into runs until the peer goes away
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{"session_id": c.SessionID, "error": err.Error()})
			}
			return
		}

		var req dto.SendMessageRequest
		if err := json.Unmarshal(raw, &req); err != nil || strings.TrimSpace(req.Question) == "" {
			c.Hub.Deliver(c.SessionID, dto.StreamFrame{Type: dto.FrameError, ErrorKind: "empty_question", Message: "expected {\"question\": \"...\"}"})
			continue
		}

		// runs outside the pump so pongs keep being read while the answer streams
		go c.onQuestion(c.SessionID, req.Question)
	}
}

// writePump pumps frames from the hub to the websocket connection.
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
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// one frame per message; clients parse each text message as a single JSON object
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
