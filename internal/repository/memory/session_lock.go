package memory

import (
	"context"
	"sync"

	"multistep-rag-be/pkg/rag"
)

// SessionLock serialises runs per session within one process
type SessionLock struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewSessionLock() *SessionLock {
	return &SessionLock{active: make(map[string]struct{})}
}

func (l *SessionLock) Acquire(_ context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.active[sessionID]; busy {
		return nil, rag.ErrSessionBusy
	}
	l.active[sessionID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, sessionID)
			l.mu.Unlock()
		})
	}, nil
}
