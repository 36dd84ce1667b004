package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"multistep-rag-be/internal/dto"
	"multistep-rag-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHubDeliversToSessionWatchers(t *testing.T) {
	hub := startHub(t)

	a := &Client{Hub: hub, SessionID: "s1", Send: make(chan []byte, 4)}
	b := &Client{Hub: hub, SessionID: "s1", Send: make(chan []byte, 4)}
	other := &Client{Hub: hub, SessionID: "s2", Send: make(chan []byte, 4)}
	for _, c := range []*Client{a, b, other} {
		hub.register <- c
	}
	require.Eventually(t, func() bool { return hub.Watchers("s1") == 2 }, time.Second, 5*time.Millisecond)

	hub.Deliver("s1", dto.StreamFrame{Type: dto.FrameFragment, Content: "Atten"})

	for _, c := range []*Client{a, b} {
		var frame dto.StreamFrame
		require.NoError(t, json.Unmarshal(<-c.Send, &frame))
		assert.Equal(t, dto.StreamFrame{Type: dto.FrameFragment, Content: "Atten"}, frame)
	}
	assert.Empty(t, other.Send)
}

func TestHubUnregister(t *testing.T) {
	hub := startHub(t)

	c := &Client{Hub: hub, SessionID: "s1", Send: make(chan []byte, 1)}
	hub.register <- c
	hub.unregister <- c

	require.Eventually(t, func() bool { return hub.Watchers("s1") == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-c.Send
	assert.False(t, open)

	// a second unregister for the same client must not panic on a closed channel
	hub.unregister <- c
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := startHub(t)

	slow := &Client{Hub: hub, SessionID: "s1", Send: make(chan []byte)}
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.Watchers("s1") == 1 }, time.Second, 5*time.Millisecond)

	hub.Deliver("s1", dto.StreamFrame{Type: dto.FrameDone, Outcome: "answered"})

	assert.Equal(t, 0, hub.Watchers("s1"))
}

func TestEncodeRelay(t *testing.T) {
	t.Run("wraps frame", func(t *testing.T) {
		payload, err := encodeRelay("node-a", "s1", []byte(`{"type":"fragment"}`))
		require.NoError(t, err)

		var msg clusterMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, "node-a", msg.Origin)
		assert.Equal(t, "s1", msg.SessionID)
		assert.JSONEq(t, `{"type":"fragment"}`, string(msg.Message))
	})

	t.Run("invalid frame is an error", func(t *testing.T) {
		_, err := encodeRelay("node-a", "s1", []byte(`{"type":`))
		assert.Error(t, err)
	})
}
