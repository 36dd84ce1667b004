package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"multistep-rag-be/internal/dto"
	"multistep-rag-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "rag_session_frames"

type clusterMessage struct {
	Origin    string          `json:"origin"`
	SessionID string          `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

// Hub fans answer frames out to every socket watching a session. Frames are also relayed
// through Redis so tabs connected to other instances see the same run.
type Hub struct {
	// Registered clients map: SessionID -> clients (several tabs may watch one conversation)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance communication, nil when running alone
	rdb *redis.Client

	instanceID string
	logger     logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.SessionID]) == 0 {
		delete(h.clients, client.SessionID)
		h.logger.Info("Hub", "Session has no more watchers", map[string]interface{}{"session_id": client.SessionID})
	}
}

// Deliver sends frame to all local watchers of sessionID and to other instances
func (h *Hub) Deliver(sessionID string, frame dto.StreamFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode frame", map[string]interface{}{"error": err.Error()})
		return
	}

	h.sendLocal(sessionID, data)

	if h.rdb != nil {
		payload, err := encodeRelay(h.instanceID, sessionID, data)
		if err != nil {
			h.logger.Error("Hub", "Failed to encode relay message", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
			return
		}
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to relay frame", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		}
	}
}

func encodeRelay(origin, sessionID string, frame []byte) ([]byte, error) {
	return json.Marshal(clusterMessage{Origin: origin, SessionID: sessionID, Message: frame})
}

// Watchers reports how many local sockets follow sessionID
func (h *Hub) Watchers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) sendLocal(sessionID string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range append([]*Client(nil), h.clients[sessionID]...) {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"session_id": sessionID})
			h.remove(client)
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instanceID {
			continue
		}
		h.sendLocal(payload.SessionID, payload.Message)
	}
}
