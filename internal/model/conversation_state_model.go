package model

import (
	"time"

	"gorm.io/datatypes"
)

// ConversationState stores the serialized session state of one conversation thread
type ConversationState struct {
	SessionId string         `gorm:"type:varchar(64);primaryKey"`
	State     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (ConversationState) TableName() string {
	return "conversation_states"
}
