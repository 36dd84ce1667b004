package contract

import (
	"context"

	"multistep-rag-be/internal/entity"
	"multistep-rag-be/internal/repository/specification"
	"multistep-rag-be/pkg/store"
)

type PassageRepository interface {
	CreateBulk(ctx context.Context, passages []*entity.Passage) error
	DeleteAll(ctx context.Context, specs ...specification.Specification) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar returns the closest passages by cosine similarity, best first
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]store.ScoredPassage, error)
}
