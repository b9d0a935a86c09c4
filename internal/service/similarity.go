package service

import (
	"math"

	"github.com/lumenfeed/newsrag/internal/domain"
)

// cosineEpsilon guards the denominator against zero-norm vectors.
const cosineEpsilon = 1e-12

// Cosine returns the cosine similarity of a and b in [-1, 1]. Upstage
// embeddings are normalized so dot product would do, but the full form is
// safe for arbitrary vectors.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + cosineEpsilon)
}

// SelectMMR greedily picks up to k candidate indexes by Maximal Marginal
// Relevance: score = lambda*relevance - (1-lambda)*max similarity to the
// already-selected set. The first pick is pure relevance. Ties go to the
// earliest candidate in iteration order, so the result is deterministic for
// a stable input ordering. lambda must be in [0, 1].
func SelectMMR(queryVec []float32, candVecs [][]float32, k int, lambda float64) ([]int, error) {
	if lambda < 0 || lambda > 1 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "mmr lambda must be in [0, 1]")
	}
	if k <= 0 || len(candVecs) == 0 {
		return nil, nil
	}

	rel := make([]float64, len(candVecs))
	for i, v := range candVecs {
		rel[i] = Cosine(queryVec, v)
	}

	selected := make([]int, 0, k)
	remaining := make(map[int]struct{}, len(candVecs))
	for i := range candVecs {
		remaining[i] = struct{}{}
	}

	for len(remaining) > 0 && len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)
		for i := range candVecs {
			if _, ok := remaining[i]; !ok {
				continue
			}
			var score float64
			if len(selected) == 0 {
				score = rel[i]
			} else {
				maxSim := math.Inf(-1)
				for _, j := range selected {
					if sim := Cosine(candVecs[i], candVecs[j]); sim > maxSim {
						maxSim = sim
					}
				}
				score = lambda*rel[i] - (1-lambda)*maxSim
			}
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, bestIdx)
		delete(remaining, bestIdx)
	}
	return selected, nil
}
