package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/careloop/rxengine/internal/domain"
	"go.uber.org/zap"
)

const (
	// maxExplainedFeatures bounds the perturbation work per result.
	maxExplainedFeatures = 12
	llmExplainTimeout    = 5 * time.Second
)

// Explainer produces the per-result explanation by local perturbation:
// mask each query feature, re-score the candidate with the deterministic
// models, and attribute the score delta to that feature. Read-only with
// respect to weights, patterns, and the catalog.
type Explainer struct {
	semantic  Scorer
	knowledge Scorer
	llm       domain.LLMClient
	logger    *zap.Logger
}

func NewExplainer(semantic, knowledge Scorer, llm domain.LLMClient, logger *zap.Logger) *Explainer {
	return &Explainer{
		semantic:  semantic,
		knowledge: knowledge,
		llm:       llm,
		logger:    logger,
	}
}

// Explain builds the explanation for one returned candidate.
func (e *Explainer) Explain(ctx context.Context, sig domain.QuerySignal, cand domain.Candidate, voting domain.ScoreVector) domain.Explanation {
	importance := e.featureImportance(ctx, sig, cand)

	primary := primaryFeature(importance)
	reason := "general symptom profile match"
	if primary != "" {
		reason = fmt.Sprintf("high match for %q", primary)
	}

	return domain.Explanation{
		FeatureImportance: importance,
		PrimaryReason:     reason,
		NaturalLanguage:   e.naturalLanguage(ctx, sig, cand, primary, voting),
	}
}

// featureImportance masks one token (or structured condition) at a time and
// records how much the candidate's semantic+knowledge score drops without it.
func (e *Explainer) featureImportance(ctx context.Context, sig domain.QuerySignal, cand domain.Candidate) map[string]float64 {
	features := sig.Tokens()
	if len(features) > maxExplainedFeatures {
		features = features[:maxExplainedFeatures]
	}
	if len(features) == 0 {
		return map[string]float64{}
	}

	base := e.scoreOne(ctx, sig, cand)

	importance := make(map[string]float64, len(features))
	for _, feature := range features {
		masked := maskFeature(sig, feature)
		importance[feature] = base - e.scoreOne(ctx, masked, cand)
	}
	return importance
}

// scoreOne computes the deterministic portion of one candidate's score
// (semantic + knowledge raw sum). Model faults degrade to 0 here exactly as
// they do in the aggregator.
func (e *Explainer) scoreOne(ctx context.Context, sig domain.QuerySignal, cand domain.Candidate) float64 {
	total := 0.0
	for _, scorer := range []Scorer{e.semantic, e.knowledge} {
		if scorer == nil {
			continue
		}
		scores, err := scorer.Score(ctx, sig, []domain.Candidate{cand})
		if err != nil || len(scores) != 1 {
			continue
		}
		total += scores[0]
	}
	return total
}

func (e *Explainer) naturalLanguage(ctx context.Context, sig domain.QuerySignal, cand domain.Candidate, primary string, voting domain.ScoreVector) string {
	fallback := templateExplanation(cand, primary, voting.Dominant())
	if e.llm == nil {
		return fallback
	}

	llmCtx, cancel := context.WithTimeout(ctx, llmExplainTimeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Write one concise professional sentence for a clinician explaining why %s is recommended. "+
			"Patient signal: %q. Strongest matching feature: %q. Dominant scoring strategy: %s. "+
			"No disclaimers.",
		cand.Name, sig.Text, primary, voting.Dominant())

	text, err := e.llm.Explain(llmCtx, prompt)
	if err != nil || text == "" {
		// Wording is best-effort; the template keeps the response complete.
		if err != nil && e.logger != nil {
			e.logger.Debug("llm explanation failed, using template", zap.Error(err))
		}
		return fallback
	}
	return text
}

func templateExplanation(cand domain.Candidate, primary string, dominant domain.ModelName) string {
	model := map[domain.ModelName]string{
		domain.ModelSemantic:      "semantic similarity to the symptom description",
		domain.ModelKnowledge:     "its known indications",
		domain.ModelCollaborative: "prescriptions for similar past cases",
	}[dominant]

	if primary == "" {
		return fmt.Sprintf("%s matches the overall symptom profile, driven mainly by %s.", cand.Name, model)
	}
	return fmt.Sprintf("%s is recommended primarily for %q, driven mainly by %s.", cand.Name, primary, model)
}

// primaryFeature returns the feature with the largest absolute delta,
// breaking ties alphabetically for reproducible output.
func primaryFeature(importance map[string]float64) string {
	features := make([]string, 0, len(importance))
	for f := range importance {
		features = append(features, f)
	}
	sort.Strings(features)

	best := ""
	bestAbs := 0.0
	for _, f := range features {
		if abs := math.Abs(importance[f]); abs > bestAbs {
			best, bestAbs = f, abs
		}
	}
	return best
}

func removeToken(text, token string) string {
	var kept []string
	for _, word := range strings.Fields(text) {
		if strings.Trim(strings.ToLower(word), ",.;:!?()") == token {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

func maskFeature(sig domain.QuerySignal, feature string) domain.QuerySignal {
	masked := domain.QuerySignal{
		Text:       removeToken(sig.Text, feature),
		Conditions: make([]string, 0, len(sig.Conditions)),
	}
	for _, cond := range sig.Conditions {
		if removed := removeToken(cond, feature); removed != "" {
			masked.Conditions = append(masked.Conditions, removed)
		}
	}
	return masked
}
