package workflow

import (
	"context"
	"fmt"

	"multistep-rag-be/pkg/store"
)

func (e *Engine) retrieve(ctx context.Context, _ string, work *store.SessionState, _ func(string) error) error {
	docs, err := e.retriever.Search(ctx, work.RephrasedQuestion, e.cfg.TopK, true)
	if err != nil {
		return fmt.Errorf("retrieve passages: %w", err)
	}
	if docs == nil {
		docs = []store.Passage{}
	}
	work.Documents = docs
	return nil
}
