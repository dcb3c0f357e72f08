package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/careloop/rxengine/internal/domain"
)

func TestSemanticScorer_RanksByCosine(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"high fever": {1, 0, 0, 0},
	}}
	scorer := NewSemanticScorer(embedder)

	aligned := makeCandidate(0, "Paracetamol", "Antipyretic", []string{"fever"}, 120)
	aligned.Embedding = []float32{1, 0, 0, 0}
	partial := makeCandidate(1, "Ibuprofen", "NSAID", []string{"pain"}, 85)
	partial.Embedding = []float32{1, 1, 0, 0}
	opposite := makeCandidate(2, "Metformin", "Antidiabetic", []string{"diabetes"}, 60)
	opposite.Embedding = []float32{-1, 0, 0, 0}

	sig := domain.QuerySignal{Text: "high fever"}
	scores, err := scorer.Score(context.Background(), sig, []domain.Candidate{aligned, partial, opposite})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if math.Abs(scores[0]-1.0) > 1e-6 {
		t.Fatalf("expected aligned candidate to score 1.0, got %.4f", scores[0])
	}
	if scores[1] <= 0 || scores[1] >= scores[0] {
		t.Fatalf("expected partial candidate between 0 and 1, got %.4f", scores[1])
	}
	// Negative cosine clamps to zero rather than shifting.
	if scores[2] != 0 {
		t.Fatalf("expected opposite candidate to clamp to 0, got %.4f", scores[2])
	}
}

func TestSemanticScorer_EmbedsCandidateTextWhenMissing(t *testing.T) {
	paracetamol := makeCandidate(0, "Paracetamol", "Antipyretic for fever", []string{"fever"}, 120)
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"fever":            {1, 0, 0, 0},
		paracetamol.Text(): {1, 0, 0, 0},
	}}
	scorer := NewSemanticScorer(embedder)

	scores, err := scorer.Score(context.Background(), domain.QuerySignal{Text: "fever"}, []domain.Candidate{paracetamol})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if math.Abs(scores[0]-1.0) > 1e-6 {
		t.Fatalf("expected on-the-fly embedding to score 1.0, got %.4f", scores[0])
	}
}

func TestSemanticScorer_QueryEmbedErrorPropagates(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("provider down")}
	scorer := NewSemanticScorer(embedder)

	_, err := scorer.Score(context.Background(), domain.QuerySignal{Text: "fever"},
		[]domain.Candidate{makeCandidate(0, "Paracetamol", "Antipyretic", nil, 120)})
	if err == nil {
		t.Fatal("expected error when the query cannot be embedded")
	}
}

func TestSemanticScorer_NilClientScoresZero(t *testing.T) {
	scorer := NewSemanticScorer(nil)

	scores, err := scorer.Score(context.Background(), domain.QuerySignal{Text: "fever"},
		[]domain.Candidate{makeCandidate(0, "Paracetamol", "Antipyretic", nil, 120)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if scores[0] != 0 {
		t.Fatalf("expected zero score without a client, got %.4f", scores[0])
	}
}
