package service

import (
	"context"
	"math"
	"testing"

	"github.com/careloop/rxengine/internal/domain"
)

func TestCollaborativeScorer_WeightsByPastPrescriptions(t *testing.T) {
	patterns := staticPatterns{
		{Signature: "cough fever", Counts: map[string]int{"Paracetamol": 3, "Ibuprofen": 1}},
	}
	scorer := NewCollaborativeScorer(patterns)

	candidates := []domain.Candidate{
		makeCandidate(0, "Paracetamol", "Antipyretic", []string{"fever"}, 120),
		makeCandidate(1, "Ibuprofen", "NSAID", []string{"pain"}, 85),
		makeCandidate(2, "Metformin", "Antidiabetic", []string{"diabetes"}, 60),
	}

	// Same token set as the stored signature, identity similarity.
	sig := domain.QuerySignal{Text: "patient has fever and cough"}
	scores, err := scorer.Score(context.Background(), sig, candidates)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if scores[0] != 1.0 {
		t.Fatalf("expected most-prescribed medicine to normalize to 1.0, got %.4f", scores[0])
	}
	if math.Abs(scores[1]-1.0/3.0) > 1e-9 {
		t.Fatalf("expected Ibuprofen at 1/3 of the max, got %.4f", scores[1])
	}
	if scores[2] != 0 {
		t.Fatalf("expected unprescribed medicine to score 0, got %.4f", scores[2])
	}
}

func TestCollaborativeScorer_ColdStartScoresZero(t *testing.T) {
	scorer := NewCollaborativeScorer(staticPatterns{})

	scores, err := scorer.Score(context.Background(), domain.QuerySignal{Text: "fever"},
		[]domain.Candidate{makeCandidate(0, "Paracetamol", "Antipyretic", nil, 120)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if scores[0] != 0 {
		t.Fatalf("expected cold-start score 0, got %.4f", scores[0])
	}
}

func TestCollaborativeScorer_IgnoresUnrelatedSignatures(t *testing.T) {
	patterns := staticPatterns{
		{Signature: "diabetes glucose thirst", Counts: map[string]int{"Metformin": 5}},
	}
	scorer := NewCollaborativeScorer(patterns)

	candidates := []domain.Candidate{
		makeCandidate(0, "Metformin", "Antidiabetic", []string{"diabetes"}, 60),
	}

	scores, err := scorer.Score(context.Background(), domain.QuerySignal{Text: "fever and cough"}, candidates)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if scores[0] != 0 {
		t.Fatalf("expected disjoint signature to contribute nothing, got %.4f", scores[0])
	}
}

func TestCollaborativeScorer_PartialOverlapDiscountsCounts(t *testing.T) {
	patterns := staticPatterns{
		{Signature: "cough fever headache", Counts: map[string]int{"Paracetamol": 2}},
	}
	scorer := NewCollaborativeScorer(patterns)

	candidates := []domain.Candidate{
		makeCandidate(0, "Paracetamol", "Antipyretic", []string{"fever"}, 120),
		makeCandidate(1, "Ibuprofen", "NSAID", []string{"pain"}, 85),
	}

	// Two of three signature tokens, Jaccard 2/3, above the floor.
	scores, err := scorer.Score(context.Background(), domain.QuerySignal{Text: "fever and headache"}, candidates)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if scores[0] != 1.0 {
		t.Fatalf("expected sole prescribed medicine to normalize to 1.0, got %.4f", scores[0])
	}
	if scores[1] != 0 {
		t.Fatalf("expected other medicine to score 0, got %.4f", scores[1])
	}
}
