package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"multistep-rag-be/internal/pkg/logger"
	"multistep-rag-be/pkg/rag"
	"multistep-rag-be/pkg/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// needs a live Redis, e.g. RAG_TEST_REDIS_URL=redis://localhost:6379/15
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("RAG_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RAG_TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	rdb := newTestClient(t)
	ctx := context.Background()
	repo := NewSessionRepository(rdb, time.Minute)
	id := uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, sessionKey(id)) })

	_, err := repo.Load(ctx, id)
	assert.ErrorIs(t, err, rag.ErrSessionNotFound)

	st := store.NewSessionState()
	st.Question = "What is multi-head attention?"
	st.Messages = []store.Message{{Role: store.RoleUser, Content: st.Question}}
	st.Checkpoint = store.Checkpoint{Next: store.StepClassify, Pending: true}
	require.NoError(t, repo.Save(ctx, id, st))

	got, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, st.Messages, got.Messages)
	assert.Equal(t, st.Checkpoint, got.Checkpoint)

	ttl, err := rdb.TTL(ctx, sessionKey(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestSessionLockExclusive(t *testing.T) {
	rdb := newTestClient(t)
	ctx := context.Background()
	lock := NewSessionLock(rdb, time.Minute, logger.NewNopLogger())
	id := uuid.NewString()

	release, err := lock.Acquire(ctx, id)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, id)
	assert.ErrorIs(t, err, rag.ErrSessionBusy)

	release()
	release, err = lock.Acquire(ctx, id)
	require.NoError(t, err)
	release()
}

func TestSessionLockOutlivesTTLWhileHeld(t *testing.T) {
	rdb := newTestClient(t)
	ctx := context.Background()
	ttl := 300 * time.Millisecond
	lock := NewSessionLock(rdb, ttl, logger.NewNopLogger())
	id := uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, lockKeyPrefix+id) })

	release, err := lock.Acquire(ctx, id)
	require.NoError(t, err)

	time.Sleep(3 * ttl)
	_, err = lock.Acquire(ctx, id)
	assert.ErrorIs(t, err, rag.ErrSessionBusy)

	release()
	release()
	exists, err := rdb.Exists(ctx, lockKeyPrefix+id).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestSessionLockRenewalStopsWhenStolen(t *testing.T) {
	rdb := newTestClient(t)
	ctx := context.Background()
	ttl := 300 * time.Millisecond
	lock := NewSessionLock(rdb, ttl, logger.NewNopLogger())
	id := uuid.NewString()
	key := lockKeyPrefix + id
	t.Cleanup(func() { rdb.Del(ctx, key) })

	release, err := lock.Acquire(ctx, id)
	require.NoError(t, err)

	require.NoError(t, rdb.Set(ctx, key, "other-holder", time.Minute).Err())
	time.Sleep(2 * ttl)
	release()

	holder, err := rdb.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "other-holder", holder)
	remaining, err := rdb.PTTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, remaining, ttl)
}
