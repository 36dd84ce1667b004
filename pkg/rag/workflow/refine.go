package workflow

import (
	"context"
	"fmt"

	"multistep-rag-be/pkg/store"
)

// refine rewrites the retrieval query slightly. It never pushes RephraseCount past the cap.
func (e *Engine) refine(ctx context.Context, _ string, work *store.SessionState, _ func(string) error) error {
	if work.RephraseCount >= e.cfg.MaxRephrase {
		return nil
	}

	refined, err := e.inference.Generate(ctx, refinePrompt(work.RephrasedQuestion))
	if err != nil {
		return fmt.Errorf("refine question: %w", err)
	}

	work.RephrasedQuestion = refined
	work.RephraseCount++
	e.metrics.observeRefinement()
	return nil
}
