package domain

import (
	"math"

	"github.com/google/uuid"
)

// ModelName identifies one of the ensemble's scoring models. The set is
// closed: adding a model means extending WeightVector and ScoreVector with it.
type ModelName string

const (
	ModelSemantic      ModelName = "semantic"
	ModelKnowledge     ModelName = "knowledge"
	ModelCollaborative ModelName = "collaborative"
)

// ModelNames lists the ensemble models in canonical order.
var ModelNames = []ModelName{ModelSemantic, ModelKnowledge, ModelCollaborative}

// WeightTolerance is the floating-point slack allowed on the sum-to-one
// invariant.
const WeightTolerance = 1e-9

// WeightVector holds the ensemble blend weights. Invariant: each component
// is >= 0 and the components sum to 1 (re-normalized after every update).
type WeightVector struct {
	Semantic      float64 `json:"semantic"`
	Knowledge     float64 `json:"knowledge"`
	Collaborative float64 `json:"collaborative"`
}

// UniformWeights returns the cold-start weight vector.
func UniformWeights() WeightVector {
	third := 1.0 / 3.0
	return WeightVector{Semantic: third, Knowledge: third, Collaborative: third}
}

// Get returns the weight for the named model.
func (w WeightVector) Get(name ModelName) float64 {
	switch name {
	case ModelSemantic:
		return w.Semantic
	case ModelKnowledge:
		return w.Knowledge
	case ModelCollaborative:
		return w.Collaborative
	}
	return 0
}

// Add returns a copy with delta added to the named model's weight.
func (w WeightVector) Add(name ModelName, delta float64) WeightVector {
	switch name {
	case ModelSemantic:
		w.Semantic += delta
	case ModelKnowledge:
		w.Knowledge += delta
	case ModelCollaborative:
		w.Collaborative += delta
	}
	return w
}

func (w WeightVector) Sum() float64 {
	return w.Semantic + w.Knowledge + w.Collaborative
}

// Normalized clips negative components to zero and rescales the vector to
// sum to 1. A fully-zeroed vector resets to uniform weights.
func (w WeightVector) Normalized() WeightVector {
	w.Semantic = math.Max(0, w.Semantic)
	w.Knowledge = math.Max(0, w.Knowledge)
	w.Collaborative = math.Max(0, w.Collaborative)

	sum := w.Sum()
	if sum <= 0 {
		return UniformWeights()
	}
	w.Semantic /= sum
	w.Knowledge /= sum
	w.Collaborative /= sum
	return w
}

// Valid reports whether the vector satisfies the weight invariant.
func (w WeightVector) Valid() bool {
	if w.Semantic < 0 || w.Knowledge < 0 || w.Collaborative < 0 {
		return false
	}
	return math.Abs(w.Sum()-1) <= WeightTolerance
}

// ScoreVector holds one candidate's raw per-model scores, each in [0,1].
// Ephemeral: computed per request, never persisted.
type ScoreVector struct {
	Semantic      float64 `json:"semantic"`
	Knowledge     float64 `json:"knowledge"`
	Collaborative float64 `json:"collaborative"`
}

// Get returns the raw score for the named model.
func (s ScoreVector) Get(name ModelName) float64 {
	switch name {
	case ModelSemantic:
		return s.Semantic
	case ModelKnowledge:
		return s.Knowledge
	case ModelCollaborative:
		return s.Collaborative
	}
	return 0
}

// Weighted returns the per-model weighted contributions (raw_i * w_i).
// The sum of the returned components equals the pre-penalty final score.
func (s ScoreVector) Weighted(w WeightVector) ScoreVector {
	return ScoreVector{
		Semantic:      s.Semantic * w.Semantic,
		Knowledge:     s.Knowledge * w.Knowledge,
		Collaborative: s.Collaborative * w.Collaborative,
	}
}

func (s ScoreVector) Sum() float64 {
	return s.Semantic + s.Knowledge + s.Collaborative
}

// Dominant returns the model contributing the largest share.
func (s ScoreVector) Dominant() ModelName {
	best := ModelSemantic
	bestScore := s.Semantic
	if s.Knowledge > bestScore {
		best, bestScore = ModelKnowledge, s.Knowledge
	}
	if s.Collaborative > bestScore {
		best = ModelCollaborative
	}
	return best
}

// Explanation is the per-result explainability payload.
type Explanation struct {
	FeatureImportance map[string]float64 `json:"feature_importance"`
	PrimaryReason     string             `json:"primary_reason"`
	NaturalLanguage   string             `json:"natural_language"`
}

// RecommendationResult is one ranked entry of a recommendation response.
// Request-scoped; never persisted.
type RecommendationResult struct {
	CandidateID     uuid.UUID   `json:"candidate_id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	SimilarityScore float64     `json:"similarity_score"` // display percentage, 0-100
	FinalScore      float64     `json:"final_score"`      // damped, [0,1]
	Voting          ScoreVector `json:"voting"`           // weighted contributions, pre-penalty
	Explanation     Explanation `json:"explanation"`
	StockLevel      int         `json:"stock_level"`
}
