package workflow

import (
	"context"
	"fmt"

	"multistep-rag-be/pkg/store"

	"golang.org/x/sync/errgroup"
)

// grade keeps the passages judged relevant, in retrieval order. Calls run concurrently up to
// GraderWorkers; the first failure cancels the rest and fails the step.
func (e *Engine) grade(ctx context.Context, _ string, work *store.SessionState, _ func(string) error) error {
	verdicts := make([]bool, len(work.Documents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.GraderWorkers)

	for i, doc := range work.Documents {
		g.Go(func() error {
			label, err := e.inference.Classify(gctx, gradePrompt(work.RephrasedQuestion, doc), binaryLabels)
			if err != nil {
				return fmt.Errorf("grade passage %s: %w", doc.ID, err)
			}
			verdicts[i] = label == "yes"
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	kept := make([]store.Passage, 0, len(work.Documents))
	for i, doc := range work.Documents {
		if verdicts[i] {
			kept = append(kept, doc)
		}
	}

	work.Documents = kept
	work.ProceedToGenerate = len(kept) > 0
	return nil
}
