package service

import (
	"context"
	"testing"

	"github.com/careloop/rxengine/internal/domain"
)

func TestKnowledgeScorer_ExactIndication(t *testing.T) {
	scorer := NewKnowledgeScorer()
	candidates := []domain.Candidate{
		makeCandidate(0, "Metformin", "First-line oral antidiabetic lowering blood glucose", []string{"diabetes", "blood sugar"}, 60),
		makeCandidate(1, "Paracetamol", "Analgesic and antipyretic", []string{"fever", "pain"}, 120),
	}

	sig := domain.QuerySignal{Text: "Patient has diabetes"}
	scores, err := scorer.Score(context.Background(), sig, candidates)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if scores[0] != exactMatchScore {
		t.Fatalf("expected Metformin to score %.1f, got %.2f", exactMatchScore, scores[0])
	}
	if scores[1] != 0 {
		t.Fatalf("expected Paracetamol to score 0 for diabetes, got %.2f", scores[1])
	}
}

func TestKnowledgeScorer_CategoryMatch(t *testing.T) {
	scorer := NewKnowledgeScorer()
	candidates := []domain.Candidate{
		makeCandidate(0, "Budesonide", "Inhaled corticosteroid delivered by inhaler for airway maintenance", []string{"respiratory"}, 20),
	}

	sig := domain.QuerySignal{Text: "wheezing from asthma"}
	scores, err := scorer.Score(context.Background(), sig, candidates)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if scores[0] != categoryMatchScore {
		t.Fatalf("expected category match %.1f, got %.2f", categoryMatchScore, scores[0])
	}
}

func TestKnowledgeScorer_StructuredConditions(t *testing.T) {
	scorer := NewKnowledgeScorer()
	candidates := []domain.Candidate{
		makeCandidate(0, "Metformin", "Oral antidiabetic", []string{"diabetes"}, 60),
	}

	// No free text, only the extracted condition field.
	sig := domain.QuerySignal{Conditions: []string{"Diabetes"}}
	scores, err := scorer.Score(context.Background(), sig, candidates)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if scores[0] != exactMatchScore {
		t.Fatalf("expected structured condition to match, got %.2f", scores[0])
	}
}

func TestKnowledgeScorer_UnknownConditionsScoreZero(t *testing.T) {
	scorer := NewKnowledgeScorer()
	candidates := []domain.Candidate{
		makeCandidate(0, "Paracetamol", "Analgesic and antipyretic", []string{"fever"}, 120),
		makeCandidate(1, "Metformin", "Oral antidiabetic", []string{"diabetes"}, 60),
	}

	sig := domain.QuerySignal{Text: "routine wellness checkup"}
	scores, err := scorer.Score(context.Background(), sig, candidates)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for i, score := range scores {
		if score != 0 {
			t.Fatalf("expected zero score for candidate %d, got %.2f", i, score)
		}
	}
}
