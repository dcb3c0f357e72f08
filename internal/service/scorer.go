package service

import (
	"context"
	"math"

	"github.com/careloop/rxengine/internal/domain"
)

// Scorer is the capability contract shared by the ensemble's scoring models.
// Score returns one value in [0,1] per candidate, in candidate order. A
// candidate the model cannot evaluate scores 0.0, not an error; a returned
// error means the whole model failed and the aggregator degrades it to zeros.
type Scorer interface {
	Name() domain.ModelName
	Score(ctx context.Context, sig domain.QuerySignal, candidates []domain.Candidate) ([]float64, error)
}

func zeroScores(n int) []float64 {
	return make([]float64, n)
}

// cosineSimilarity returns the cosine of two vectors, 0 for degenerate input.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
