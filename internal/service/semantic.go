package service

import (
	"context"
	"strings"

	"github.com/careloop/rxengine/internal/domain"
)

// SemanticScorer ranks candidates by cosine similarity between the query
// embedding and each candidate's description embedding. Candidates carrying a
// precomputed catalog embedding skip the per-request embed call.
type SemanticScorer struct {
	embeddingClient domain.EmbeddingClient
}

func NewSemanticScorer(embeddingClient domain.EmbeddingClient) *SemanticScorer {
	return &SemanticScorer{embeddingClient: embeddingClient}
}

func (s *SemanticScorer) Name() domain.ModelName {
	return domain.ModelSemantic
}

func (s *SemanticScorer) Score(ctx context.Context, sig domain.QuerySignal, candidates []domain.Candidate) ([]float64, error) {
	scores := zeroScores(len(candidates))
	if strings.TrimSpace(sig.Text) == "" && len(sig.Conditions) == 0 {
		return scores, nil
	}
	if s.embeddingClient == nil {
		return scores, nil
	}

	queryText := sig.Text
	if len(sig.Conditions) > 0 {
		queryText = strings.TrimSpace(queryText + " " + strings.Join(sig.Conditions, " "))
	}

	queryEmbedding, err := s.embeddingClient.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}

	for i, cand := range candidates {
		embedding := cand.Embedding
		if len(embedding) == 0 {
			embedding, err = s.embeddingClient.Embed(ctx, cand.Text())
			if err != nil {
				// One unembeddable candidate scores 0, the rest still rank.
				continue
			}
		}
		// Negative cosine means "unrelated" here, clamp rather than shift.
		scores[i] = clamp01(cosineSimilarity(queryEmbedding, embedding))
	}

	return scores, nil
}
