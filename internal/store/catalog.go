package store

import (
	"context"
	"errors"

	"github.com/careloop/rxengine/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// CatalogStore is the read-only view over the externally-owned medicines
// table. Stock levels are whatever the catalog holds at call time.
type CatalogStore struct {
	db *pgxpool.Pool
}

func NewCatalogStore(db *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{db: db}
}

func (s *CatalogStore) List(ctx context.Context) ([]domain.Candidate, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, tags, stock_level, embedding
		 FROM medicines
		 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		var embedding *pgvector.Vector
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Tags, &c.StockLevel, &embedding); err != nil {
			return nil, err
		}
		if embedding != nil {
			c.Embedding = embedding.Slice()
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
