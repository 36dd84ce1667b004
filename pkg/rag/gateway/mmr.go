package gateway

import (
	"math"

	"multistep-rag-be/pkg/store"
)

// MaxMarginalRelevance picks k candidates from a pool ordered by query similarity
// (Passage.Score), penalising each pick by its closeness to passages already picked.
// Candidates without a finite score are never picked.
func MaxMarginalRelevance(pool []store.ScoredPassage, k int, lambda float64) []store.ScoredPassage {
	pool = finiteScores(pool)
	if k >= len(pool) {
		return pool
	}

	selected := make([]store.ScoredPassage, 0, k)
	used := make([]bool, len(pool))

	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range pool {
			if used[i] {
				continue
			}
			score := lambda*float64(c.Passage.Score) - (1-lambda)*redundancy(c, selected)
			if best < 0 || score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		selected = append(selected, pool[best])
	}

	return selected
}

// redundancy is the highest similarity between c and any selected passage, which may be negative
func redundancy(c store.ScoredPassage, selected []store.ScoredPassage) float64 {
	if len(selected) == 0 {
		return 0
	}
	highest := math.Inf(-1)
	for _, s := range selected {
		highest = math.Max(highest, cosine(c.Embedding, s.Embedding))
	}
	return highest
}

func finiteScores(pool []store.ScoredPassage) []store.ScoredPassage {
	out := pool[:0:0]
	for _, c := range pool {
		score := float64(c.Passage.Score)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
