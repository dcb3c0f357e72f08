package domain

import (
	"github.com/google/uuid"
)

// Candidate is a read-only view of one catalog medicine. Ownership of the
// underlying record (CRUD, stock management) stays with the external catalog;
// the engine only reads it per request.
type Candidate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	StockLevel  int       `json:"stock_level"`

	// Embedding is the precomputed description embedding, if the catalog
	// carries one. Empty means the semantic scorer embeds on the fly.
	Embedding []float32 `json:"-"`
}

// Text returns the candidate rendered for embedding and keyword matching.
func (c Candidate) Text() string {
	text := c.Name + ": " + c.Description
	for _, tag := range c.Tags {
		text += " " + tag
	}
	return text
}
