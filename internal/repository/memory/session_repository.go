package memory

import (
	"context"
	"time"

	"multistep-rag-be/pkg/rag"
	"multistep-rag-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultSessionTTL = 1 * time.Hour
	purgeInterval     = 10 * time.Minute
)

// SessionRepository keeps session state in process memory. Used for development and tests.
type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository evicts sessions idle for longer than ttl; ttl <= 0 keeps them forever
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &SessionRepository{
		cache: cache.New(ttl, purgeInterval),
	}
}

func (r *SessionRepository) Save(_ context.Context, sessionID string, state *store.SessionState) error {
	// stored by value so later mutation by the caller never leaks in
	r.cache.Set(sessionID, state.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Load(_ context.Context, sessionID string) (*store.SessionState, error) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.SessionState).Clone(), nil
	}
	return nil, rag.ErrSessionNotFound
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
