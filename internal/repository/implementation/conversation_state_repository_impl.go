package implementation

import (
	"context"
	"errors"

	"multistep-rag-be/internal/mapper"
	"multistep-rag-be/internal/model"
	"multistep-rag-be/internal/repository/contract"
	"multistep-rag-be/pkg/rag"
	"multistep-rag-be/pkg/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationStateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationStateMapper
}

func NewConversationStateRepository(db *gorm.DB) contract.ConversationStateRepository {
	return &ConversationStateRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationStateMapper(),
	}
}

func (r *ConversationStateRepositoryImpl) Load(ctx context.Context, sessionID string) (*store.SessionState, error) {
	var m model.ConversationState
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rag.ErrSessionNotFound
		}
		return nil, err
	}
	return r.mapper.ToState(&m)
}

// Save upserts the whole state row so each checkpoint replaces the previous one atomically
func (r *ConversationStateRepositoryImpl) Save(ctx context.Context, sessionID string, state *store.SessionState) error {
	m, err := r.mapper.ToModel(sessionID, state)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(m).Error
}
