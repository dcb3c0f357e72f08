package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/careloop/rxengine/internal/domain"
)

func newFixedEnsemble(catalog *mockCatalogStore, weights domain.WeightVector, semantic, knowledge, collaborative Scorer) *RecommendationService {
	return NewRecommendationService(catalog, staticWeights(weights), semantic, knowledge, collaborative, nil, 5, 0.3, testLogger())
}

func TestRecommend_VotingSumEqualsFinalScore(t *testing.T) {
	catalog := &mockCatalogStore{candidates: []domain.Candidate{
		makeCandidate(0, "Paracetamol", "Antipyretic", []string{"fever"}, 120),
		makeCandidate(1, "Metformin", "Antidiabetic", []string{"diabetes"}, 60),
	}}
	svc := newFixedEnsemble(catalog, domain.UniformWeights(),
		&fixedScorer{name: domain.ModelSemantic, scores: []float64{0.9, 0.3}},
		&fixedScorer{name: domain.ModelKnowledge, scores: []float64{0.6, 0.0}},
		&fixedScorer{name: domain.ModelCollaborative, scores: []float64{0.3, 0.6}},
	)

	results, err := svc.Recommend(context.Background(), domain.QuerySignal{Text: "fever"}, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	for _, r := range results {
		if r.StockLevel > 0 && math.Abs(r.Voting.Sum()-r.FinalScore) > 1e-9 {
			t.Fatalf("%s: voting sum %.6f != final score %.6f", r.Name, r.Voting.Sum(), r.FinalScore)
		}
	}

	// (0.9+0.6+0.3)/3 = 0.6 beats (0.3+0.0+0.6)/3 = 0.3.
	if results[0].Name != "Paracetamol" {
		t.Fatalf("expected Paracetamol first, got %s", results[0].Name)
	}
	if math.Abs(results[0].FinalScore-0.6) > 1e-9 {
		t.Fatalf("expected final score 0.6, got %.6f", results[0].FinalScore)
	}
	if results[0].SimilarityScore != 60.0 {
		t.Fatalf("expected similarity 60.0, got %.1f", results[0].SimilarityScore)
	}
}

func TestRecommend_StockPenaltyDampensNotExcludes(t *testing.T) {
	catalog := &mockCatalogStore{candidates: []domain.Candidate{
		makeCandidate(0, "Amoxicillin", "Antibiotic", []string{"infection"}, 0),
		makeCandidate(1, "Azithromycin", "Antibiotic", []string{"infection"}, 40),
	}}
	svc := newFixedEnsemble(catalog, domain.UniformWeights(),
		&fixedScorer{name: domain.ModelSemantic, scores: []float64{0.9, 0.6}},
		&fixedScorer{name: domain.ModelKnowledge, scores: []float64{0.9, 0.6}},
		&fixedScorer{name: domain.ModelCollaborative, scores: []float64{0.9, 0.6}},
	)

	results, err := svc.Recommend(context.Background(), domain.QuerySignal{Text: "infection"}, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected the out-of-stock medicine to stay in the list, got %d results", len(results))
	}

	// The stronger raw match drops behind the in-stock alternative.
	if results[0].Name != "Azithromycin" {
		t.Fatalf("expected in-stock Azithromycin first, got %s", results[0].Name)
	}
	out := results[1]
	if out.Name != "Amoxicillin" || out.StockLevel != 0 {
		t.Fatalf("expected dampened Amoxicillin second, got %+v", out)
	}
	if math.Abs(out.FinalScore-0.9*0.3) > 1e-9 {
		t.Fatalf("expected dampened final score %.4f, got %.6f", 0.9*0.3, out.FinalScore)
	}
	// Voting keeps the pre-penalty contributions.
	if math.Abs(out.Voting.Sum()-0.9) > 1e-9 {
		t.Fatalf("expected pre-penalty voting sum 0.9, got %.6f", out.Voting.Sum())
	}
}

func TestRecommend_EmptyQueryRejected(t *testing.T) {
	svc := newFixedEnsemble(&mockCatalogStore{}, domain.UniformWeights(),
		&fixedScorer{name: domain.ModelSemantic},
		&fixedScorer{name: domain.ModelKnowledge},
		&fixedScorer{name: domain.ModelCollaborative},
	)

	_, err := svc.Recommend(context.Background(), domain.QuerySignal{Text: "   "}, 0)
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestRecommend_CatalogFailure(t *testing.T) {
	catalog := &mockCatalogStore{err: errors.New("connection refused")}
	svc := newFixedEnsemble(catalog, domain.UniformWeights(),
		&fixedScorer{name: domain.ModelSemantic},
		&fixedScorer{name: domain.ModelKnowledge},
		&fixedScorer{name: domain.ModelCollaborative},
	)

	_, err := svc.Recommend(context.Background(), domain.QuerySignal{Text: "fever"}, 0)
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestRecommend_EmptyCatalogYieldsEmptyList(t *testing.T) {
	svc := newFixedEnsemble(&mockCatalogStore{}, domain.UniformWeights(),
		&fixedScorer{name: domain.ModelSemantic},
		&fixedScorer{name: domain.ModelKnowledge},
		&fixedScorer{name: domain.ModelCollaborative},
	)

	results, err := svc.Recommend(context.Background(), domain.QuerySignal{Text: "fever"}, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty non-nil result list, got %v", results)
	}
}

func TestRecommend_AllZeroScoresYieldEmptyList(t *testing.T) {
	catalog := &mockCatalogStore{candidates: []domain.Candidate{
		makeCandidate(0, "Paracetamol", "Antipyretic", []string{"fever"}, 120),
		makeCandidate(1, "Metformin", "Antidiabetic", []string{"diabetes"}, 60),
	}}
	svc := newFixedEnsemble(catalog, domain.UniformWeights(),
		&fixedScorer{name: domain.ModelSemantic, scores: []float64{0, 0}},
		&fixedScorer{name: domain.ModelKnowledge, scores: []float64{0, 0}},
		&fixedScorer{name: domain.ModelCollaborative, scores: []float64{0, 0}},
	)

	results, err := svc.Recommend(context.Background(), domain.QuerySignal{Text: "unmatched symptoms"}, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty list when nothing scores above zero, got %d results", len(results))
	}
}

func TestRecommend_ZeroScoringCandidateDropped(t *testing.T) {
	catalog := &mockCatalogStore{candidates: []domain.Candidate{
		makeCandidate(0, "Paracetamol", "Antipyretic", []string{"fever"}, 120),
		makeCandidate(1, "Metformin", "Antidiabetic", []string{"diabetes"}, 60),
	}}
	svc := newFixedEnsemble(catalog, domain.UniformWeights(),
		&fixedScorer{name: domain.ModelSemantic, scores: []float64{0.6, 0}},
		&fixedScorer{name: domain.ModelKnowledge, scores: []float64{0.9, 0}},
		&fixedScorer{name: domain.ModelCollaborative, scores: []float64{0, 0}},
	)

	results, err := svc.Recommend(context.Background(), domain.QuerySignal{Text: "fever"}, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 1 || results[0].Name != "Paracetamol" {
		t.Fatalf("expected only the scoring candidate, got %v", results)
	}
}

func TestRecommend_FailedModelDegradesToZeros(t *testing.T) {
	catalog := &mockCatalogStore{candidates: []domain.Candidate{
		makeCandidate(0, "Paracetamol", "Antipyretic", []string{"fever"}, 120),
	}}
	svc := newFixedEnsemble(catalog, domain.UniformWeights(),
		&fixedScorer{name: domain.ModelSemantic, err: errors.New("embedding provider down")},
		&fixedScorer{name: domain.ModelKnowledge, scores: []float64{0.9}},
		&fixedScorer{name: domain.ModelCollaborative, scores: []float64{0.3}},
	)

	results, err := svc.Recommend(context.Background(), domain.QuerySignal{Text: "fever"}, 0)
	if err != nil {
		t.Fatalf("expected degraded request to succeed, got %v", err)
	}
	if results[0].Voting.Semantic != 0 {
		t.Fatalf("expected failed model to contribute 0, got %.4f", results[0].Voting.Semantic)
	}
	if results[0].Voting.Knowledge == 0 {
		t.Fatal("expected healthy models to still contribute")
	}
}

func TestRecommend_TieBreaksByCandidateID(t *testing.T) {
	catalog := &mockCatalogStore{candidates: []domain.Candidate{
		makeCandidate(1, "Ibuprofen", "NSAID", []string{"pain"}, 85),
		makeCandidate(0, "Paracetamol", "Antipyretic", []string{"fever"}, 120),
	}}
	svc := newFixedEnsemble(catalog, domain.UniformWeights(),
		&fixedScorer{name: domain.ModelSemantic, scores: []float64{0.5, 0.5}},
		&fixedScorer{name: domain.ModelKnowledge, scores: []float64{0.5, 0.5}},
		&fixedScorer{name: domain.ModelCollaborative, scores: []float64{0.5, 0.5}},
	)

	results, err := svc.Recommend(context.Background(), domain.QuerySignal{Text: "fever"}, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if results[0].CandidateID != candidateID(0) || results[1].CandidateID != candidateID(1) {
		t.Fatalf("expected tied scores ordered by candidate id, got %s then %s", results[0].Name, results[1].Name)
	}
}

func TestRecommend_LimitTruncates(t *testing.T) {
	catalog := &mockCatalogStore{candidates: []domain.Candidate{
		makeCandidate(0, "Paracetamol", "Antipyretic", []string{"fever"}, 120),
		makeCandidate(1, "Ibuprofen", "NSAID", []string{"pain"}, 85),
		makeCandidate(2, "Metformin", "Antidiabetic", []string{"diabetes"}, 60),
	}}
	svc := newFixedEnsemble(catalog, domain.UniformWeights(),
		&fixedScorer{name: domain.ModelSemantic, scores: []float64{0.9, 0.6, 0.3}},
		&fixedScorer{name: domain.ModelKnowledge, scores: []float64{0.9, 0.6, 0.3}},
		&fixedScorer{name: domain.ModelCollaborative, scores: []float64{0.9, 0.6, 0.3}},
	)

	results, err := svc.Recommend(context.Background(), domain.QuerySignal{Text: "fever"}, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected limit to cap results at 2, got %d", len(results))
	}
}

// End-to-end over the real models: a diabetes signal should surface Metformin
// on the strength of its known indication.
func TestRecommend_KnowledgeDominantScenario(t *testing.T) {
	catalog := &mockCatalogStore{candidates: []domain.Candidate{
		makeCandidate(0, "Paracetamol", "Analgesic and antipyretic for pain and fever", []string{"fever", "pain"}, 120),
		makeCandidate(1, "Metformin", "First-line oral antidiabetic lowering blood glucose", []string{"diabetes", "blood sugar"}, 60),
	}}
	svc := NewRecommendationService(catalog, staticWeights(domain.UniformWeights()),
		NewSemanticScorer(nil), NewKnowledgeScorer(), NewCollaborativeScorer(staticPatterns{}),
		nil, 5, 0.3, testLogger())

	results, err := svc.Recommend(context.Background(), domain.QuerySignal{Text: "patient reports diabetes"}, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if results[0].Name != "Metformin" {
		t.Fatalf("expected Metformin first, got %s", results[0].Name)
	}
	if results[0].Voting.Dominant() != domain.ModelKnowledge {
		t.Fatalf("expected knowledge-dominant voting, got %s", results[0].Voting.Dominant())
	}
}
