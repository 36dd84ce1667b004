package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"multistep-rag-be/internal/entity"
	"multistep-rag-be/internal/repository/specification"
	"multistep-rag-be/pkg/embedding"
	"multistep-rag-be/pkg/events"
	"multistep-rag-be/pkg/llm"
	"multistep-rag-be/pkg/store"
)

type fakePassageRepo struct {
	mu       sync.Mutex
	stored   []*entity.Passage
	deleted  []specification.Specification
	count    int64
	countErr error
}

func (f *fakePassageRepo) CreateBulk(ctx context.Context, passages []*entity.Passage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, passages...)
	return nil
}

func (f *fakePassageRepo) DeleteAll(ctx context.Context, specs ...specification.Specification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, specs...)
	return nil
}

func (f *fakePassageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return f.count, f.countErr
}

func (f *fakePassageRepo) SearchSimilar(ctx context.Context, emb []float32, limit int) ([]store.ScoredPassage, error) {
	return nil, nil
}

type fakeEmbedder struct {
	failOn string
	calls  int
}

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	f.calls++
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding backend down")
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}}}, nil
}

// stubInference answers every classification with "yes" and streams a fixed answer
type stubInference struct{}

func (stubInference) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	return messages[len(messages)-1].Content, nil
}

func (stubInference) Stream(ctx context.Context, messages []llm.Message, onFragment func(string) error) (string, error) {
	for _, c := range []string{"Self-attention ", "relates positions."} {
		if err := onFragment(c); err != nil {
			return "", err
		}
	}
	return "Self-attention relates positions.", nil
}

func (stubInference) Classify(ctx context.Context, messages []llm.Message, allowed []string) (string, error) {
	return "yes", nil
}

type stubRetriever struct{}

func (stubRetriever) Search(ctx context.Context, query string, k int, diversify bool) ([]store.Passage, error) {
	return []store.Passage{{ID: "p1", Source: "paper.pdf#page=3", Content: "Self-attention relates positions."}}, nil
}

type recordingForwarder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingForwarder) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingForwarder) received() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}
