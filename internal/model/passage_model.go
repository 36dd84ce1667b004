package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type Passage struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Source         string          `gorm:"type:text;not null;index"`
	ChunkIndex     int             `gorm:"default:0"`
	Content        string          `gorm:"type:text;not null"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text uses 768 dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (Passage) TableName() string {
	return "passages"
}
