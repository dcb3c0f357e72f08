package domain

import (
	"context"
)

// CatalogStore is the read-only view over the external medicine catalog.
// List must reflect current stock levels at call time.
type CatalogStore interface {
	List(ctx context.Context) ([]Candidate, error)
}

// LearningStore owns the durable learning state: the append-only event and
// snapshot logs, the current-weights record, and the co-occurrence table.
type LearningStore interface {
	// LoadWeights returns the current weights record, or ErrNotFound when
	// no feedback has ever been committed.
	LoadWeights(ctx context.Context) (WeightVector, error)
	LoadPatterns(ctx context.Context) ([]MedicinePattern, error)

	// CommitFeedback durably applies one feedback event: appends the event
	// and a weight snapshot, increments the (signature, medicine) pattern
	// count, and replaces the current-weights record, all atomically.
	CommitFeedback(ctx context.Context, event *LearningEvent, snapshot *WeightSnapshot, signature string) error

	Stats(ctx context.Context) (*LearningStats, error)

	// PurgeEvents is the explicit administrative purge of the audit trail.
	// It removes events and snapshots but keeps current weights and patterns.
	PurgeEvents(ctx context.Context) (int64, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// LLMClient produces natural-language wording for explanations. Optional:
// the explainer falls back to templates when no client is configured.
type LLMClient interface {
	Explain(ctx context.Context, prompt string) (string, error)
}
