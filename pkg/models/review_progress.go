package models

import "time"

// Status is the scheduling state of a card for one learner
type Status string

const (
	// StatusLearning marks a card that was last graded AGAIN (or never passed)
	StatusLearning Status = "LEARNING"
	// StatusReview marks a card that was last recalled successfully
	StatusReview Status = "REVIEW"
)

// ReviewProgress tracks a learner's progress with a single card.
// One record exists per (learner, card) pair and is overwritten on every grading.
type ReviewProgress struct {
	LearnerID    int64     `json:"learnerId,omitempty" db:"learner_id"`
	CardID       int64     `json:"cardId,omitempty" db:"card_id"`
	Status       Status    `json:"status" db:"status"`
	NextReviewAt time.Time `json:"nextReviewAt" db:"next_review_at"`
	Repetitions  int       `json:"repetitions" db:"repetitions"`    // Consecutive non-AGAIN grades
	LearningStep int       `json:"learningStep" db:"learning_step"` // Number of grading events, informational
	EaseFactor   float64   `json:"easeFactor" db:"ease_factor"`     // Interval growth multiplier, >= 1.3
	IntervalDays int       `json:"intervalDays" db:"interval_days"` // Gap used for NextReviewAt at the last grading
}

// IsDue reports whether the card may be shown at the given time
func (p ReviewProgress) IsDue(now time.Time) bool {
	return !p.NextReviewAt.After(now)
}
