package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"multistep-rag-be/pkg/rag"
	"multistep-rag-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(0)

	_, err := repo.Load(ctx, "missing")
	assert.ErrorIs(t, err, rag.ErrSessionNotFound)

	st := store.NewSessionState()
	st.Question = "q"
	st.Messages = append(st.Messages, store.Message{Role: store.RoleUser, Content: "q"})
	require.NoError(t, repo.Save(ctx, "a", st))

	// caller mutation after save must not leak into the store
	st.Messages[0].Content = "changed"

	got, err := repo.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "q", got.Messages[0].Content)

	got.Messages = append(got.Messages, store.Message{Role: store.RoleAssistant, Content: "x"})
	again, _ := repo.Load(ctx, "a")
	assert.Len(t, again.Messages, 1)

	_, err = repo.Load(ctx, "b")
	assert.ErrorIs(t, err, rag.ErrSessionNotFound, "sessions are isolated")

	repo.Delete("a")
	_, err = repo.Load(ctx, "a")
	assert.ErrorIs(t, err, rag.ErrSessionNotFound)
}

func TestSessionLock(t *testing.T) {
	ctx := context.Background()
	lock := NewSessionLock()

	release, err := lock.Acquire(ctx, "s")
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "s")
	assert.ErrorIs(t, err, rag.ErrSessionBusy)

	other, err := lock.Acquire(ctx, "t")
	require.NoError(t, err)
	other()

	release()
	release()

	release, err = lock.Acquire(ctx, "s")
	require.NoError(t, err)
	release()
}

func TestSessionLockSingleWinner(t *testing.T) {
	lock := NewSessionLock()
	var winners atomic.Int32
	var wg sync.WaitGroup

	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := lock.Acquire(context.Background(), "s"); err == nil {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}
