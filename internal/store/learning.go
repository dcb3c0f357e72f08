package store

import (
	"context"
	"errors"
	"time"

	"github.com/careloop/rxengine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LearningStore persists the engine's long-lived state: the append-only
// learning event and weight snapshot logs, the single current-weights
// record, and the medicine pattern co-occurrence table.
type LearningStore struct {
	db *pgxpool.Pool
}

func NewLearningStore(db *pgxpool.Pool) *LearningStore {
	return &LearningStore{db: db}
}

func (s *LearningStore) LoadWeights(ctx context.Context) (domain.WeightVector, error) {
	var w domain.WeightVector
	err := s.db.QueryRow(ctx,
		`SELECT semantic, knowledge, collaborative FROM ensemble_weights WHERE id = TRUE`,
	).Scan(&w.Semantic, &w.Knowledge, &w.Collaborative)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WeightVector{}, ErrNotFound
		}
		return domain.WeightVector{}, err
	}
	return w, nil
}

func (s *LearningStore) LoadPatterns(ctx context.Context) ([]domain.MedicinePattern, error) {
	rows, err := s.db.Query(ctx,
		`SELECT signature, medicine_name, count
		 FROM medicine_patterns
		 ORDER BY signature, medicine_name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bySignature := make(map[string]*domain.MedicinePattern)
	var order []string
	for rows.Next() {
		var signature, medicine string
		var count int
		if err := rows.Scan(&signature, &medicine, &count); err != nil {
			return nil, err
		}
		p, ok := bySignature[signature]
		if !ok {
			p = &domain.MedicinePattern{Signature: signature, Counts: map[string]int{}}
			bySignature[signature] = p
			order = append(order, signature)
		}
		p.Counts[medicine] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	patterns := make([]domain.MedicinePattern, 0, len(order))
	for _, signature := range order {
		patterns = append(patterns, *bySignature[signature])
	}
	return patterns, nil
}

// CommitFeedback applies one feedback event atomically: event append,
// snapshot append, pattern count increment, current-weights replace.
func (s *LearningStore) CommitFeedback(ctx context.Context, event *domain.LearningEvent, snapshot *domain.WeightSnapshot, signature string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO learning_events
		   (id, symptoms_text, selected_medicine, outcome,
		    semantic_before, knowledge_before, collaborative_before,
		    semantic_after, knowledge_after, collaborative_after, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		event.ID, event.SymptomsText, event.SelectedMedicine, event.Outcome,
		event.WeightsBefore.Semantic, event.WeightsBefore.Knowledge, event.WeightsBefore.Collaborative,
		event.WeightsAfter.Semantic, event.WeightsAfter.Knowledge, event.WeightsAfter.Collaborative,
		event.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO weight_snapshots (id, semantic, knowledge, collaborative, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		snapshot.ID, snapshot.Weights.Semantic, snapshot.Weights.Knowledge, snapshot.Weights.Collaborative,
		snapshot.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO medicine_patterns (signature, medicine_name, count)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (signature, medicine_name) DO UPDATE SET count = medicine_patterns.count + 1`,
		signature, event.SelectedMedicine,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO ensemble_weights (id, semantic, knowledge, collaborative, updated_at)
		 VALUES (TRUE, $1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		   semantic = EXCLUDED.semantic,
		   knowledge = EXCLUDED.knowledge,
		   collaborative = EXCLUDED.collaborative,
		   updated_at = EXCLUDED.updated_at`,
		snapshot.Weights.Semantic, snapshot.Weights.Knowledge, snapshot.Weights.Collaborative,
		snapshot.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *LearningStore) Stats(ctx context.Context) (*domain.LearningStats, error) {
	stats := &domain.LearningStats{
		WeightEvolution:  []domain.WeightSnapshot{},
		MedicinePatterns: []domain.MedicinePattern{},
	}

	var first, last *time.Time
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE created_at >= date_trunc('day', now())),
		        MIN(created_at), MAX(created_at)
		 FROM learning_events`,
	).Scan(&stats.TotalLearningEvents, &stats.EventsToday, &first, &last)
	if err != nil {
		return nil, err
	}
	stats.LastEventAt = last

	// Events per hour over the observed span, matching how the evolution
	// series is read: meaningless below two events.
	if stats.TotalLearningEvents >= 2 && first != nil && last != nil {
		if hours := last.Sub(*first).Hours(); hours > 0 {
			stats.HourlyRate = float64(stats.TotalLearningEvents) / hours
		}
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, semantic, knowledge, collaborative, created_at
		 FROM weight_snapshots
		 ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var snap domain.WeightSnapshot
		if err := rows.Scan(&snap.ID, &snap.Weights.Semantic, &snap.Weights.Knowledge, &snap.Weights.Collaborative, &snap.CreatedAt); err != nil {
			return nil, err
		}
		stats.WeightEvolution = append(stats.WeightEvolution, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	patterns, err := s.LoadPatterns(ctx)
	if err != nil {
		return nil, err
	}
	stats.MedicinePatterns = patterns

	return stats, nil
}

// PurgeEvents removes the audit trail (events and snapshots) while keeping
// the current weights and the pattern table.
func (s *LearningStore) PurgeEvents(ctx context.Context) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM learning_events`)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM weight_snapshots`); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
