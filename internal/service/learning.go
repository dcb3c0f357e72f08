package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/careloop/rxengine/internal/domain"
	"github.com/careloop/rxengine/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// learningState is one immutable published generation of the shared mutable
// state: the weight vector plus the co-occurrence table. Readers grab the
// pointer once and get a consistent snapshot; the engine replaces the whole
// pointer after a successful commit.
type learningState struct {
	weights  domain.WeightVector
	patterns map[string]domain.MedicinePattern
}

// LearningEngine is the single writer of the weight vector, the learning
// event log, the weight-snapshot log, and the MedicinePattern table. Each
// feedback event walks received -> validated -> applied -> persisted; the
// in-memory state is published only after the store commit succeeds, so a
// persistence failure rolls back by simply not publishing.
type LearningEngine struct {
	catalog      domain.CatalogStore
	learnStore   domain.LearningStore
	semantic     Scorer
	knowledge    Scorer
	learningRate float64
	logger       *zap.Logger

	mu    sync.Mutex // serializes feedback application
	state atomic.Pointer[learningState]
}

func NewLearningEngine(
	catalog domain.CatalogStore,
	learnStore domain.LearningStore,
	semantic, knowledge Scorer,
	learningRate float64,
	logger *zap.Logger,
) *LearningEngine {
	e := &LearningEngine{
		catalog:      catalog,
		learnStore:   learnStore,
		semantic:     semantic,
		knowledge:    knowledge,
		learningRate: learningRate,
		logger:       logger,
	}
	e.state.Store(&learningState{
		weights:  domain.UniformWeights(),
		patterns: map[string]domain.MedicinePattern{},
	})
	return e
}

// LoadState restores persisted weights and patterns at startup. Missing
// weights (no feedback ever) keep the uniform cold-start vector.
func (e *LearningEngine) LoadState(ctx context.Context) error {
	weights, err := e.learnStore.LoadWeights(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("load weights: %w", err)
		}
		weights = domain.UniformWeights()
	}

	patternList, err := e.learnStore.LoadPatterns(ctx)
	if err != nil {
		return fmt.Errorf("load patterns: %w", err)
	}
	patterns := make(map[string]domain.MedicinePattern, len(patternList))
	for _, p := range patternList {
		patterns[p.Signature] = p
	}

	e.state.Store(&learningState{weights: weights.Normalized(), patterns: patterns})
	e.logger.Info("learning state loaded",
		zap.Float64("w_semantic", weights.Semantic),
		zap.Float64("w_knowledge", weights.Knowledge),
		zap.Float64("w_collaborative", weights.Collaborative),
		zap.Int("patterns", len(patterns)))
	return nil
}

// Weights returns the current weight vector as a point-in-time copy.
func (e *LearningEngine) Weights() domain.WeightVector {
	return e.state.Load().weights
}

// PatternSnapshot returns the current co-occurrence table. The returned
// patterns belong to a published generation and must not be mutated.
func (e *LearningEngine) PatternSnapshot() []domain.MedicinePattern {
	patterns := e.state.Load().patterns
	list := make([]domain.MedicinePattern, 0, len(patterns))
	for _, p := range patterns {
		list = append(list, p)
	}
	return list
}

// ApplyFeedback processes one prescriber feedback event and returns the
// committed weight vector.
func (e *LearningEngine) ApplyFeedback(ctx context.Context, symptomsText, selectedMedicine string) (domain.WeightVector, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Validate.
	if strings.TrimSpace(symptomsText) == "" {
		return e.Weights(), ErrEmptySymptoms
	}
	candidates, err := e.catalog.List(ctx)
	if err != nil {
		return e.Weights(), fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	selected := findCandidate(candidates, selectedMedicine)
	if selected < 0 {
		return e.Weights(), fmt.Errorf("%w: %q", ErrUnknownMedicine, selectedMedicine)
	}

	current := e.state.Load()
	sig := domain.QuerySignal{Text: symptomsText}

	// Apply: re-derive the per-model preferences for this signal and nudge.
	matrix := e.scoreMatrix(ctx, sig, candidates, current)
	next := nudge(current.weights, matrix, candidates, selected, e.learningRate)

	nextPatterns := clonePatterns(current.patterns)
	signature := sig.Signature()
	pattern, ok := nextPatterns[signature]
	if !ok {
		pattern = domain.MedicinePattern{Signature: signature, Counts: map[string]int{}}
	}
	pattern.Counts[candidates[selected].Name]++
	nextPatterns[signature] = pattern

	now := time.Now().UTC()
	event := &domain.LearningEvent{
		ID:               uuid.New(),
		SymptomsText:     symptomsText,
		SelectedMedicine: candidates[selected].Name,
		Outcome:          "accepted",
		WeightsBefore:    current.weights,
		WeightsAfter:     next,
		CreatedAt:        now,
	}
	snapshot := &domain.WeightSnapshot{ID: uuid.New(), Weights: next, CreatedAt: now}

	// Persist, then publish. A failed commit leaves the published state
	// untouched and reports the event as failed.
	if err := e.learnStore.CommitFeedback(ctx, event, snapshot, signature); err != nil {
		e.logger.Error("feedback commit failed, rolling back weight update",
			zap.String("selected_medicine", event.SelectedMedicine),
			zap.Error(err))
		return current.weights, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	e.state.Store(&learningState{weights: next, patterns: nextPatterns})

	e.logger.Info("weights updated from feedback",
		zap.String("selected_medicine", event.SelectedMedicine),
		zap.Float64("w_semantic", next.Semantic),
		zap.Float64("w_knowledge", next.Knowledge),
		zap.Float64("w_collaborative", next.Collaborative))
	return next, nil
}

// Stats returns the learning statistics document, derived read-only from the
// store with the live weight vector layered on top.
func (e *LearningEngine) Stats(ctx context.Context) (*domain.LearningStats, error) {
	stats, err := e.learnStore.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	stats.CurrentWeights = e.Weights()
	return stats, nil
}

// PurgeEvents is the explicit administrative purge of the audit trail.
func (e *LearningEngine) PurgeEvents(ctx context.Context) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed, err := e.learnStore.PurgeEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	e.logger.Warn("learning event log purged", zap.Int64("events_removed", removed))
	return removed, nil
}

// scoreMatrix computes what each model would have predicted for this signal.
// The collaborative view comes straight from the given state generation so
// the nudge and the update read the same snapshot.
func (e *LearningEngine) scoreMatrix(ctx context.Context, sig domain.QuerySignal, candidates []domain.Candidate, state *learningState) map[domain.ModelName][]float64 {
	collaborative := NewCollaborativeScorer(staticPatterns(patternList(state.patterns)))

	matrix := make(map[domain.ModelName][]float64, 3)
	for _, scorer := range []Scorer{e.semantic, e.knowledge, collaborative} {
		scores, err := scorer.Score(ctx, sig, candidates)
		if err != nil || len(scores) != len(candidates) {
			scores = zeroScores(len(candidates))
		}
		matrix[scorer.Name()] = scores
	}
	return matrix
}

// nudge applies the additive learning rule: when the blended top pick agrees
// with the prescriber, the single model that most strongly preferred that
// pick moves up; otherwise every model whose own top pick was wrong moves
// down. The result is clipped at zero and renormalized to sum to one.
func nudge(weights domain.WeightVector, matrix map[domain.ModelName][]float64, candidates []domain.Candidate, selected int, rate float64) domain.WeightVector {
	aggregateTop := argmaxBlended(matrix, weights, candidates)

	if aggregateTop == selected {
		best := domain.ModelSemantic
		bestScore := -1.0
		for _, name := range domain.ModelNames {
			if score := matrix[name][selected]; score > bestScore {
				best, bestScore = name, score
			}
		}
		return weights.Add(best, rate).Normalized()
	}

	next := weights
	for _, name := range domain.ModelNames {
		top := argmaxScores(matrix[name], candidates)
		// A model that scored everything zero expressed no preference and
		// takes no penalty.
		if top != selected && matrix[name][top] > 0 {
			next = next.Add(name, -rate)
		}
	}
	return next.Normalized()
}

func argmaxBlended(matrix map[domain.ModelName][]float64, weights domain.WeightVector, candidates []domain.Candidate) int {
	blended := make([]float64, len(candidates))
	for _, name := range domain.ModelNames {
		w := weights.Get(name)
		for i, score := range matrix[name] {
			blended[i] += score * w
		}
	}
	return argmaxScores(blended, candidates)
}

// argmaxScores breaks score ties by candidate id ascending, mirroring the
// aggregator's deterministic ordering.
func argmaxScores(scores []float64, candidates []domain.Candidate) int {
	best := -1
	for i := range scores {
		if best < 0 || scores[i] > scores[best] {
			best = i
			continue
		}
		if scores[i] == scores[best] &&
			strings.Compare(candidates[i].ID.String(), candidates[best].ID.String()) < 0 {
			best = i
		}
	}
	return best
}

func findCandidate(candidates []domain.Candidate, idOrName string) int {
	needle := strings.ToLower(strings.TrimSpace(idOrName))
	for i, cand := range candidates {
		if strings.ToLower(cand.Name) == needle || strings.ToLower(cand.ID.String()) == needle {
			return i
		}
	}
	return -1
}

func clonePatterns(patterns map[string]domain.MedicinePattern) map[string]domain.MedicinePattern {
	next := make(map[string]domain.MedicinePattern, len(patterns)+1)
	for sig, p := range patterns {
		next[sig] = p.Clone()
	}
	return next
}

func patternList(patterns map[string]domain.MedicinePattern) []domain.MedicinePattern {
	list := make([]domain.MedicinePattern, 0, len(patterns))
	for _, p := range patterns {
		list = append(list, p)
	}
	return list
}

// staticPatterns adapts a fixed pattern list to the PatternSource contract.
type staticPatterns []domain.MedicinePattern

func (p staticPatterns) PatternSnapshot() []domain.MedicinePattern {
	return p
}
