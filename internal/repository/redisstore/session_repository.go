package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"multistep-rag-be/pkg/rag"
	"multistep-rag-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "rag:session:"

// SessionRepository keeps session state as one JSON value per session key
type SessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionRepository refreshes the key expiry on every save; ttl <= 0 keeps keys forever
func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl < 0 {
		ttl = 0
	}
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*store.SessionState, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, rag.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session %s: %w", sessionID, err)
	}

	state := store.NewSessionState()
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return state.Clone(), nil
}

func (r *SessionRepository) Save(ctx context.Context, sessionID string, state *store.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	if err := r.rdb.Set(ctx, sessionKey(sessionID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", sessionID, err)
	}
	return nil
}
