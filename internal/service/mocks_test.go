package service

import (
	"context"
	"fmt"

	"github.com/careloop/rxengine/internal/domain"
	"github.com/careloop/rxengine/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// candidateID builds a stable UUID from an index so candidates sort in index
// order when scores tie.
func candidateID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func makeCandidate(n int, name, description string, tags []string, stock int) domain.Candidate {
	return domain.Candidate{
		ID:          candidateID(n),
		Name:        name,
		Description: description,
		Tags:        tags,
		StockLevel:  stock,
	}
}

// mockCatalogStore implements domain.CatalogStore for testing.
type mockCatalogStore struct {
	candidates []domain.Candidate
	err        error
}

func (m *mockCatalogStore) List(_ context.Context) ([]domain.Candidate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

// mockLearningStore implements domain.LearningStore in memory.
type mockLearningStore struct {
	weights   *domain.WeightVector
	patterns  []domain.MedicinePattern
	events    []domain.LearningEvent
	snapshots []domain.WeightSnapshot

	commitErr error
	statsErr  error
}

func (m *mockLearningStore) LoadWeights(_ context.Context) (domain.WeightVector, error) {
	if m.weights == nil {
		return domain.WeightVector{}, store.ErrNotFound
	}
	return *m.weights, nil
}

func (m *mockLearningStore) LoadPatterns(_ context.Context) ([]domain.MedicinePattern, error) {
	return m.patterns, nil
}

func (m *mockLearningStore) CommitFeedback(_ context.Context, event *domain.LearningEvent, snapshot *domain.WeightSnapshot, signature string) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.events = append(m.events, *event)
	m.snapshots = append(m.snapshots, *snapshot)
	m.weights = &snapshot.Weights

	for i := range m.patterns {
		if m.patterns[i].Signature == signature {
			m.patterns[i].Counts[event.SelectedMedicine]++
			return nil
		}
	}
	m.patterns = append(m.patterns, domain.MedicinePattern{
		Signature: signature,
		Counts:    map[string]int{event.SelectedMedicine: 1},
	})
	return nil
}

func (m *mockLearningStore) Stats(_ context.Context) (*domain.LearningStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	stats := &domain.LearningStats{
		TotalLearningEvents: len(m.events),
		WeightEvolution:     append([]domain.WeightSnapshot{}, m.snapshots...),
		MedicinePatterns:    append([]domain.MedicinePattern{}, m.patterns...),
	}
	if len(m.events) > 0 {
		last := m.events[len(m.events)-1].CreatedAt
		stats.LastEventAt = &last
	}
	return stats, nil
}

func (m *mockLearningStore) PurgeEvents(_ context.Context) (int64, error) {
	removed := int64(len(m.events))
	m.events = nil
	m.snapshots = nil
	return removed, nil
}

// fixedScorer returns preset scores regardless of the signal.
type fixedScorer struct {
	name   domain.ModelName
	scores []float64
	err    error
}

func (f *fixedScorer) Name() domain.ModelName {
	return f.name
}

func (f *fixedScorer) Score(_ context.Context, _ domain.QuerySignal, _ []domain.Candidate) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

// staticWeights adapts a fixed vector to the WeightSource contract.
type staticWeights domain.WeightVector

func (w staticWeights) Weights() domain.WeightVector {
	return domain.WeightVector(w)
}

// stubEmbedder maps exact texts to fixed vectors; unknown texts get a vector
// orthogonal to everything in the map.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0, 1}, nil
}
