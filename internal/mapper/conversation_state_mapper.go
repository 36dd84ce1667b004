package mapper

import (
	"encoding/json"
	"fmt"

	"multistep-rag-be/internal/model"
	"multistep-rag-be/pkg/store"

	"gorm.io/datatypes"
)

type ConversationStateMapper struct{}

func NewConversationStateMapper() *ConversationStateMapper {
	return &ConversationStateMapper{}
}

func (m *ConversationStateMapper) ToState(c *model.ConversationState) (*store.SessionState, error) {
	state := store.NewSessionState()
	if err := json.Unmarshal(c.State, state); err != nil {
		return nil, fmt.Errorf("decode state of session %s: %w", c.SessionId, err)
	}
	return state.Clone(), nil
}

func (m *ConversationStateMapper) ToModel(sessionID string, state *store.SessionState) (*model.ConversationState, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state of session %s: %w", sessionID, err)
	}
	return &model.ConversationState{
		SessionId: sessionID,
		State:     datatypes.JSON(raw),
	}, nil
}
