package mapper

import (
	"multistep-rag-be/internal/entity"
	"multistep-rag-be/internal/model"
	"multistep-rag-be/pkg/store"

	"github.com/pgvector/pgvector-go"
)

type PassageMapper struct{}

func NewPassageMapper() *PassageMapper {
	return &PassageMapper{}
}

func (m *PassageMapper) ToEntity(p *model.Passage) *entity.Passage {
	if p == nil {
		return nil
	}
	return &entity.Passage{
		Id:         p.Id,
		Source:     p.Source,
		ChunkIndex: p.ChunkIndex,
		Content:    p.Content,
		Embedding:  p.EmbeddingValue.Slice(),
		CreatedAt:  p.CreatedAt,
	}
}

func (m *PassageMapper) ToModel(e *entity.Passage) *model.Passage {
	if e == nil {
		return nil
	}
	return &model.Passage{
		Id:             e.Id,
		Source:         e.Source,
		ChunkIndex:     e.ChunkIndex,
		Content:        e.Content,
		EmbeddingValue: pgvector.NewVector(e.Embedding),
		CreatedAt:      e.CreatedAt,
	}
}

// ToScored converts a search row into the workflow's view of a passage
func (m *PassageMapper) ToScored(p *model.Passage, similarity float64) store.ScoredPassage {
	return store.ScoredPassage{
		Passage: store.Passage{
			ID:      p.Id.String(),
			Source:  p.Source,
			Content: p.Content,
			Score:   float32(similarity),
		},
		Embedding: p.EmbeddingValue.Slice(),
	}
}
