package gateway

import (
	"context"
	"fmt"
	"time"

	"multistep-rag-be/pkg/embedding"
	"multistep-rag-be/pkg/store"
)

const (
	DefaultFetchK     = 20
	DefaultMMRLambda  = 0.5
	DefaultSearchWait = 30 * time.Second
)

// PassageSearcher runs a nearest-neighbour query over the passage index
type PassageSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]store.ScoredPassage, error)
}

type RetrievalConfig struct {
	// FetchK is the candidate pool size re-ranked by MMR when diversity is requested
	FetchK int
	// Lambda trades relevance (1.0) against diversity (0.0)
	Lambda  float64
	Timeout time.Duration
}

type RetrievalGateway struct {
	embedder embedding.EmbeddingProvider
	searcher PassageSearcher
	cfg      RetrievalConfig
}

func NewRetrievalGateway(embedder embedding.EmbeddingProvider, searcher PassageSearcher, cfg RetrievalConfig) *RetrievalGateway {
	if cfg.FetchK <= 0 {
		cfg.FetchK = DefaultFetchK
	}
	if cfg.Lambda < 0 || cfg.Lambda > 1 {
		cfg.Lambda = DefaultMMRLambda
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSearchWait
	}
	return &RetrievalGateway{embedder: embedder, searcher: searcher, cfg: cfg}
}

// Search returns up to k passages for query, best first.
func (g *RetrievalGateway) Search(ctx context.Context, query string, k int, diversify bool) ([]store.Passage, error) {
	if k <= 0 {
		return []store.Passage{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	emb, err := g.embedder.Generate(callCtx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, classifyError(callCtx, fmt.Errorf("embed query: %w", err))
	}

	limit := k
	if diversify && g.cfg.FetchK > k {
		limit = g.cfg.FetchK
	}

	candidates, err := g.searcher.SearchSimilar(callCtx, emb.Embedding.Values, limit)
	if err != nil {
		return nil, classifyError(callCtx, fmt.Errorf("search passages: %w", err))
	}

	// zero vectors in the index score NaN and sort first
	candidates = finiteScores(candidates)
	if diversify {
		candidates = MaxMarginalRelevance(candidates, k, g.cfg.Lambda)
	} else if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]store.Passage, len(candidates))
	for i, c := range candidates {
		out[i] = c.Passage
	}
	return out, nil
}
