package implementation

import (
	"context"

	"multistep-rag-be/internal/entity"
	"multistep-rag-be/internal/mapper"
	"multistep-rag-be/internal/model"
	"multistep-rag-be/internal/repository/contract"
	"multistep-rag-be/internal/repository/specification"
	"multistep-rag-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const insertBatchSize = 100

type PassageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PassageMapper
}

func NewPassageRepository(db *gorm.DB) contract.PassageRepository {
	return &PassageRepositoryImpl{
		db:     db,
		mapper: mapper.NewPassageMapper(),
	}
}

func (r *PassageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PassageRepositoryImpl) CreateBulk(ctx context.Context, passages []*entity.Passage) error {
	if len(passages) == 0 {
		return nil
	}
	models := make([]*model.Passage, len(passages))
	for i, p := range passages {
		models[i] = r.mapper.ToModel(p)
	}

	if err := r.db.WithContext(ctx).CreateInBatches(models, insertBatchSize).Error; err != nil {
		return err
	}

	// Update IDs back to entities
	for i, m := range models {
		*passages[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *PassageRepositoryImpl) DeleteAll(ctx context.Context, specs ...specification.Specification) error {
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if len(specs) == 0 {
		query = query.Where("1 = 1")
	}
	return query.Delete(&model.Passage{}).Error
}

func (r *PassageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Passage{}).Count(&count).Error
	return count, err
}

// SearchSimilar ranks by pgvector cosine distance; similarity = 1 - distance
func (r *PassageRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]store.ScoredPassage, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.Passage
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("passages").
		Select("passages.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]store.ScoredPassage, len(results))
	for i := range results {
		scored[i] = r.mapper.ToScored(&results[i].Passage, results[i].Similarity)
	}
	return scored, nil
}
