package workflow

import (
	"context"

	"multistep-rag-be/pkg/store"
)

func (e *Engine) cannotAnswer(_ context.Context, _ string, work *store.SessionState, emit func(string) error) error {
	return refuse(work, CannotAnswerMessage, store.OutcomeCannotAnswer, emit)
}

func (e *Engine) offTopic(_ context.Context, _ string, work *store.SessionState, emit func(string) error) error {
	return refuse(work, OffTopicMessage, store.OutcomeOffTopic, emit)
}

func refuse(work *store.SessionState, message string, outcome store.Outcome, emit func(string) error) error {
	if err := emit(message); err != nil {
		return err
	}
	work.Messages = append(work.Messages, store.Message{Role: store.RoleAssistant, Content: message})
	work.Outcome = outcome
	return nil
}
