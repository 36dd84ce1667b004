package workflow

import (
	"context"
	"fmt"

	"multistep-rag-be/pkg/store"
)

func (e *Engine) classify(ctx context.Context, _ string, work *store.SessionState, _ func(string) error) error {
	label, err := e.inference.Classify(ctx, classifyPrompt(e.cfg.Topics, work.RephrasedQuestion), binaryLabels)
	if err != nil {
		return fmt.Errorf("classify topic: %w", err)
	}

	if label == "yes" {
		work.IsTopic = store.TopicYes
	} else {
		work.IsTopic = store.TopicNo
	}
	return nil
}
