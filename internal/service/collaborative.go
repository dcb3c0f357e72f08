package service

import (
	"context"
	"strings"

	"github.com/careloop/rxengine/internal/domain"
)

// signatureSimilarityFloor is the Jaccard similarity below which a pattern
// bucket is considered unrelated to the query.
const signatureSimilarityFloor = 0.1

// PatternSource provides a consistent point-in-time view of the
// MedicinePattern co-occurrence table.
type PatternSource interface {
	PatternSnapshot() []domain.MedicinePattern
}

// CollaborativeScorer ranks candidates by how often they were prescribed for
// similar symptom signatures in past feedback. With no close-enough prior
// signature (cold start) every candidate scores 0.
type CollaborativeScorer struct {
	patterns PatternSource
}

func NewCollaborativeScorer(patterns PatternSource) *CollaborativeScorer {
	return &CollaborativeScorer{patterns: patterns}
}

func (s *CollaborativeScorer) Name() domain.ModelName {
	return domain.ModelCollaborative
}

func (s *CollaborativeScorer) Score(_ context.Context, sig domain.QuerySignal, candidates []domain.Candidate) ([]float64, error) {
	scores := zeroScores(len(candidates))
	if s.patterns == nil {
		return scores, nil
	}

	queryTokens := tokenSet(sig.Tokens())
	if len(queryTokens) == 0 {
		return scores, nil
	}

	// Similarity-weighted co-occurrence counts per medicine name.
	weighted := make(map[string]float64)
	for _, pattern := range s.patterns.PatternSnapshot() {
		similarity := jaccard(queryTokens, tokenSet(strings.Fields(pattern.Signature)))
		if similarity <= signatureSimilarityFloor {
			continue
		}
		for name, count := range pattern.Counts {
			weighted[strings.ToLower(name)] += similarity * float64(count)
		}
	}
	if len(weighted) == 0 {
		return scores, nil
	}

	var max float64
	for i, cand := range candidates {
		scores[i] = weighted[strings.ToLower(cand.Name)]
		if scores[i] > max {
			max = scores[i]
		}
	}
	if max > 0 {
		for i := range scores {
			scores[i] /= max
		}
	}

	return scores, nil
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
