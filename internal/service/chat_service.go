package service

import (
	"context"
	"fmt"

	"multistep-rag-be/internal/dto"
	"multistep-rag-be/internal/pkg/logger"
	"multistep-rag-be/pkg/rag/workflow"
	"multistep-rag-be/pkg/store"

	"github.com/google/uuid"
)

// Submitter starts workflow runs; implemented by *workflow.Engine
type Submitter interface {
	Submit(ctx context.Context, sessionID, question string) (*workflow.Stream, error)
}

type IChatService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	GetSession(ctx context.Context, sessionId string) (*dto.GetSessionResponse, error)
	// SendMessage starts a run. The caller must drain or Close the stream.
	SendMessage(ctx context.Context, sessionId string, req *dto.SendMessageRequest) (*workflow.Stream, error)
}

type chatService struct {
	engine Submitter
	states workflow.StateStore
	logger logger.ILogger
}

func NewChatService(engine Submitter, states workflow.StateStore, log logger.ILogger) IChatService {
	return &chatService{
		engine: engine,
		states: states,
		logger: log,
	}
}

func (c *chatService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	id := uuid.NewString()
	if err := c.states.Save(ctx, id, store.NewSessionState()); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.logger.Info("CHAT", "Session created", map[string]interface{}{"session_id": id})
	return &dto.CreateSessionResponse{SessionId: id}, nil
}

func (c *chatService) GetSession(ctx context.Context, sessionId string) (*dto.GetSessionResponse, error) {
	state, err := c.states.Load(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	res := &dto.GetSessionResponse{
		SessionId:     sessionId,
		Messages:      make([]dto.ChatMessageDTO, 0, len(state.Messages)),
		Documents:     make([]dto.PassageDTO, 0, len(state.Documents)),
		LastOutcome:   string(state.Outcome),
		RephraseCount: state.RephraseCount,
		Pending:       state.Checkpoint.Pending,
	}
	if !state.UpdatedAt.IsZero() {
		updatedAt := state.UpdatedAt
		res.UpdatedAt = &updatedAt
	}
	for _, m := range state.Messages {
		res.Messages = append(res.Messages, dto.ChatMessageDTO{Role: string(m.Role), Content: m.Content})
	}
	for _, d := range state.Documents {
		res.Documents = append(res.Documents, dto.PassageDTO{Id: d.ID, Source: d.Source, Content: d.Content, Score: d.Score})
	}
	return res, nil
}

// SendMessage requires the session to exist so a typo in the id does not silently open a new conversation
func (c *chatService) SendMessage(ctx context.Context, sessionId string, req *dto.SendMessageRequest) (*workflow.Stream, error) {
	if _, err := c.states.Load(ctx, sessionId); err != nil {
		return nil, err
	}
	return c.engine.Submit(ctx, sessionId, req.Question)
}
