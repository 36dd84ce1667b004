package entity

import (
	"time"

	"github.com/google/uuid"
)

// Passage is one indexed chunk of the knowledge source
type Passage struct {
	Id         uuid.UUID
	Source     string // file path, with "#page=N" for paged documents
	ChunkIndex int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}
