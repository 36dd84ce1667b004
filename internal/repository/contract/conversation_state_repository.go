package contract

import (
	"context"

	"multistep-rag-be/pkg/store"
)

// ConversationStateRepository is the durable session state store.
// Load returns rag.ErrSessionNotFound for unknown sessions.
type ConversationStateRepository interface {
	Load(ctx context.Context, sessionID string) (*store.SessionState, error)
	Save(ctx context.Context, sessionID string, state *store.SessionState) error
}
