package workflow

import (
	"context"
	"fmt"

	"multistep-rag-be/pkg/store"
)

// rewrite resets per-question state, records the question once and derives the standalone form
func (e *Engine) rewrite(ctx context.Context, question string, work *store.SessionState, _ func(string) error) error {
	work.Question = question
	work.Documents = []store.Passage{}
	work.IsTopic = store.TopicUnknown
	work.ProceedToGenerate = false
	work.RephraseCount = 0
	work.RephrasedQuestion = ""
	work.Outcome = store.OutcomeNone

	if n := len(work.Messages); n == 0 || work.Messages[n-1].Role != store.RoleUser || work.Messages[n-1].Content != question {
		work.Messages = append(work.Messages, store.Message{Role: store.RoleUser, Content: question})
	}

	prior := work.History()
	if len(prior) == 0 {
		work.RephrasedQuestion = question
		return nil
	}

	rephrased, err := e.inference.Generate(ctx, rewritePrompt(prior, question))
	if err != nil {
		return fmt.Errorf("rephrase question: %w", err)
	}
	work.RephrasedQuestion = rephrased
	return nil
}
