package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/careloop/rxengine/internal/domain"
	"go.uber.org/zap"
)

const defaultTopK = 5

// WeightSource provides the consistent point-in-time weight snapshot a
// request ranks with.
type WeightSource interface {
	Weights() domain.WeightVector
}

// RecommendationService is the ensemble aggregator: it fans the query out to
// the scoring models, blends the raw scores with the current weight snapshot,
// applies the stock penalty, ranks, and attaches explanations.
type RecommendationService struct {
	catalog   domain.CatalogStore
	weights   WeightSource
	explainer *Explainer
	logger    *zap.Logger

	// Closed model set; extending it extends WeightVector and ScoreVector.
	semantic      Scorer
	knowledge     Scorer
	collaborative Scorer

	topK         int
	stockPenalty float64
}

func NewRecommendationService(
	catalog domain.CatalogStore,
	weights WeightSource,
	semantic, knowledge, collaborative Scorer,
	explainer *Explainer,
	topK int,
	stockPenalty float64,
	logger *zap.Logger,
) *RecommendationService {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &RecommendationService{
		catalog:       catalog,
		weights:       weights,
		explainer:     explainer,
		logger:        logger,
		semantic:      semantic,
		knowledge:     knowledge,
		collaborative: collaborative,
		topK:          topK,
		stockPenalty:  stockPenalty,
	}
}

// Recommend ranks the catalog for one query signal. An empty catalog, or a
// catalog nothing scores on, yields an empty list, not an error.
func (s *RecommendationService) Recommend(ctx context.Context, sig domain.QuerySignal, limit int) ([]domain.RecommendationResult, error) {
	if sig.Empty() {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = s.topK
	}

	candidates, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if len(candidates) == 0 {
		return []domain.RecommendationResult{}, nil
	}

	// One snapshot per request so all candidates rank under the same blend.
	weights := s.weights.Weights()

	matrix := s.scoreAll(ctx, sig, candidates)

	type ranked struct {
		candidate domain.Candidate
		raw       domain.ScoreVector
		voting    domain.ScoreVector
		damped    float64
	}

	entries := make([]ranked, 0, len(candidates))
	for i, cand := range candidates {
		raw := domain.ScoreVector{
			Semantic:      matrix[domain.ModelSemantic][i],
			Knowledge:     matrix[domain.ModelKnowledge][i],
			Collaborative: matrix[domain.ModelCollaborative][i],
		}
		voting := raw.Weighted(weights)
		damped := voting.Sum()
		// No model scored this candidate above zero: it is not a match and
		// must not pad the list.
		if damped == 0 {
			continue
		}
		if cand.StockLevel == 0 {
			// Out of stock dampens but never excludes: the medicine may
			// still be clinically correct and worth surfacing.
			damped *= s.stockPenalty
		}
		entries = append(entries, ranked{candidate: cand, raw: raw, voting: voting, damped: damped})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].damped != entries[j].damped {
			return entries[i].damped > entries[j].damped
		}
		return strings.Compare(entries[i].candidate.ID.String(), entries[j].candidate.ID.String()) < 0
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}

	results := make([]domain.RecommendationResult, 0, len(entries))
	for _, e := range entries {
		result := domain.RecommendationResult{
			CandidateID:     e.candidate.ID,
			Name:            e.candidate.Name,
			Description:     e.candidate.Description,
			SimilarityScore: math.Round(e.damped*1000) / 10,
			FinalScore:      e.damped,
			Voting:          e.voting,
			StockLevel:      e.candidate.StockLevel,
		}
		if s.explainer != nil {
			result.Explanation = s.explainer.Explain(ctx, sig, e.candidate, e.voting)
		}
		results = append(results, result)
	}

	return results, nil
}

// scoreAll runs the three models concurrently. A failed model degrades to
// zero scores for every candidate instead of failing the request.
func (s *RecommendationService) scoreAll(ctx context.Context, sig domain.QuerySignal, candidates []domain.Candidate) map[domain.ModelName][]float64 {
	scorers := []Scorer{s.semantic, s.knowledge, s.collaborative}

	matrix := make(map[domain.ModelName][]float64, len(scorers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, scorer := range scorers {
		wg.Add(1)
		go func(sc Scorer) {
			defer wg.Done()
			scores, err := sc.Score(ctx, sig, candidates)
			if err != nil || len(scores) != len(candidates) {
				if err != nil {
					s.logger.Warn("scoring model failed, degrading to zeros",
						zap.String("model", string(sc.Name())),
						zap.Error(err))
				}
				scores = zeroScores(len(candidates))
			}
			mu.Lock()
			matrix[sc.Name()] = scores
			mu.Unlock()
		}(scorer)
	}
	wg.Wait()

	return matrix
}
