package workflow

import (
	"context"
	"fmt"

	"multistep-rag-be/pkg/store"
)

// generate streams the grounded answer and records it as an assistant message
func (e *Engine) generate(ctx context.Context, _ string, work *store.SessionState, emit func(string) error) error {
	answer, err := e.inference.Stream(ctx, answerPrompt(work.Messages, work.Documents, work.RephrasedQuestion), emit)
	if err != nil {
		return fmt.Errorf("generate answer: %w", err)
	}

	work.Messages = append(work.Messages, store.Message{Role: store.RoleAssistant, Content: answer})
	work.Outcome = store.OutcomeAnswered
	return nil
}
