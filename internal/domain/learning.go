package domain

import (
	"time"

	"github.com/google/uuid"
)

// LearningEvent records one prescriber feedback submission. Append-only and
// immutable once written; kept forever as an audit trail unless an explicit
// administrative purge removes the log.
type LearningEvent struct {
	ID               uuid.UUID    `json:"id"`
	SymptomsText     string       `json:"symptoms_text"`
	SelectedMedicine string       `json:"selected_medicine"`
	Outcome          string       `json:"outcome,omitempty"`
	WeightsBefore    WeightVector `json:"weights_before"`
	WeightsAfter     WeightVector `json:"weights_after"`
	CreatedAt        time.Time    `json:"timestamp"`
}

// WeightSnapshot is one point of the weight-evolution time series, appended
// whenever the weights change and never mutated afterwards.
type WeightSnapshot struct {
	ID        uuid.UUID    `json:"id"`
	Weights   WeightVector `json:"weights"`
	CreatedAt time.Time    `json:"timestamp"`
}

// MedicinePattern is the co-occurrence bucket for one normalized symptom
// signature: how often each medicine was prescribed for it.
type MedicinePattern struct {
	Signature string         `json:"signature"`
	Counts    map[string]int `json:"counts"`
}

// Clone deep-copies the pattern so published snapshots stay immutable.
func (p MedicinePattern) Clone() MedicinePattern {
	counts := make(map[string]int, len(p.Counts))
	for name, n := range p.Counts {
		counts[name] = n
	}
	return MedicinePattern{Signature: p.Signature, Counts: counts}
}

// LearningStats is the read-only statistics document derived from the
// learning store.
type LearningStats struct {
	TotalLearningEvents int               `json:"total_learning_events"`
	EventsToday         int               `json:"events_today"`
	HourlyRate          float64           `json:"hourly_rate"`
	LastEventAt         *time.Time        `json:"last_event_timestamp,omitempty"`
	CurrentWeights      WeightVector      `json:"current_weights"`
	WeightEvolution     []WeightSnapshot  `json:"weight_evolution"`
	MedicinePatterns    []MedicinePattern `json:"medicine_patterns"`
}
