package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/flashcards/internal/store"
	"github.com/example/flashcards/pkg/models"
)

// ProgressRepository stores review progress as one row per (learner, card).
// It implements store.Store.
type ProgressRepository struct {
	db *sqlx.DB
}

var _ store.Store = (*ProgressRepository)(nil)

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Load returns every progress record of the learner keyed by card ID
func (r *ProgressRepository) Load(ctx context.Context, learnerID int64) (store.Progress, error) {
	var rows []models.ReviewProgress
	query := r.db.Rebind(`
		SELECT learner_id, card_id, status, next_review_at, repetitions,
			learning_step, ease_factor, interval_days
		FROM review_progress
		WHERE learner_id = ?
	`)
	if err := r.db.SelectContext(ctx, &rows, query, learnerID); err != nil {
		return nil, fmt.Errorf("%w: failed to load progress: %v", store.ErrPersistence, err)
	}

	progress := make(store.Progress, len(rows))
	for _, p := range rows {
		progress[p.CardID] = p
	}
	return progress, nil
}

// Save upserts every record of the map. Rows missing from the map are left untouched.
func (r *ProgressRepository) Save(ctx context.Context, learnerID int64, progress store.Progress) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", store.ErrPersistence, err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO review_progress (
			learner_id, card_id, status, next_review_at, repetitions,
			learning_step, ease_factor, interval_days
		) VALUES (
			:learner_id, :card_id, :status, :next_review_at, :repetitions,
			:learning_step, :ease_factor, :interval_days
		)
		ON CONFLICT (learner_id, card_id) DO UPDATE SET
			status = EXCLUDED.status,
			next_review_at = EXCLUDED.next_review_at,
			repetitions = EXCLUDED.repetitions,
			learning_step = EXCLUDED.learning_step,
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			updated_at = CURRENT_TIMESTAMP
	`
	for cardID, p := range progress {
		p.LearnerID = learnerID
		p.CardID = cardID
		if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
			return fmt.Errorf("%w: failed to save progress for card %d: %v", store.ErrPersistence, cardID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit progress: %v", store.ErrPersistence, err)
	}
	return nil
}
