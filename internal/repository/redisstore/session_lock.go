package redisstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"multistep-rag-be/internal/pkg/logger"
	"multistep-rag-be/pkg/rag"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPrefix  = "rag:lock:"
	DefaultLockTTL = 5 * time.Minute
)

// deletes the lock only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extends the lock only while it still carries our token
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// SessionLock serialises runs per session across instances sharing one Redis.
// A held lock is renewed every ttl/3 until released, so the TTL only bounds how long
// a crashed holder can block its session.
type SessionLock struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewSessionLock(rdb *redis.Client, ttl time.Duration, log logger.ILogger) *SessionLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &SessionLock{rdb: rdb, ttl: ttl, logger: log}
}

func (l *SessionLock) Acquire(ctx context.Context, sessionID string) (func(), error) {
	key := lockKeyPrefix + sessionID
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock session %s: %w", sessionID, err)
	}
	if !ok {
		return nil, rag.ErrSessionBusy
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(key, token, sessionID, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// the run context may already be cancelled
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
				l.logger.Warn("STORE", "failed to release session lock", map[string]interface{}{
					"session_id": sessionID,
					"error":      err.Error(),
				})
			}
		})
	}, nil
}

func (l *SessionLock) keepAlive(key, token, sessionID string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := max(l.ttl/3, time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			renewed, err := renewScript.Run(ctx, l.rdb, []string{key}, token, l.ttl.Milliseconds()).Int64()
			cancel()

			switch {
			case err != nil:
				// transient, retried on the next tick while the key still lives
				l.logger.Warn("STORE", "failed to renew session lock", map[string]interface{}{
					"session_id": sessionID,
					"error":      err.Error(),
				})
			case renewed == 0:
				l.logger.Error("STORE", "session lock lost before release", map[string]interface{}{
					"session_id": sessionID,
				})
				return
			}
		}
	}
}
