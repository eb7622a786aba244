package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/flashcards/pkg/models"
)

// LearnerRepository handles database operations for learners
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository creates a new repository instance
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

const learnerColumns = "id, username, first_name, notification_enabled, notification_hour, created_at, updated_at"

// GetByID returns a learner by ID
func (r *LearnerRepository) GetByID(ctx context.Context, id int64) (*models.Learner, error) {
	var learner models.Learner
	query := r.db.Rebind("SELECT " + learnerColumns + " FROM learners WHERE id = ?")
	err := r.db.GetContext(ctx, &learner, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}
	return &learner, nil
}

// Register creates the learner if it does not exist yet and refreshes its names otherwise.
// Notification settings of an existing learner are kept.
func (r *LearnerRepository) Register(ctx context.Context, learner *models.Learner) error {
	query := r.db.Rebind(`
		INSERT INTO learners (id, username, first_name)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := r.db.ExecContext(ctx, query, learner.ID, learner.Username, learner.FirstName); err != nil {
		return fmt.Errorf("failed to register learner: %w", err)
	}
	return nil
}

// SetNotification updates the reminder settings of a learner
func (r *LearnerRepository) SetNotification(ctx context.Context, learnerID int64, enabled bool, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("notification hour %d out of range", hour)
	}
	query := r.db.Rebind(`
		UPDATE learners SET notification_enabled = ?, notification_hour = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`)
	result, err := r.db.ExecContext(ctx, query, enabled, hour, learnerID)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetForNotification returns learners with reminders enabled for the given hour
func (r *LearnerRepository) GetForNotification(ctx context.Context, hour int) ([]models.Learner, error) {
	var learners []models.Learner
	query := r.db.Rebind("SELECT " + learnerColumns + " FROM learners WHERE notification_enabled = ? AND notification_hour = ? ORDER BY id")
	if err := r.db.SelectContext(ctx, &learners, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to get learners for notification: %w", err)
	}
	return learners, nil
}
