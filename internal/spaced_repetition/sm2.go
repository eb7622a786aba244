package spaced_repetition

import (
	"fmt"
	"math"
	"time"

	"github.com/example/flashcards/pkg/models"
)

// Simplified four-grade SM-2 parameters
const (
	MinEaseFactor     = 1.3
	DefaultEaseFactor = 2.5

	againPenalty = 0.2
	hardPenalty  = 0.15
	easyBonus    = 0.1

	goodFirstInterval = 2 // days
	easyFirstInterval = 4 // days
)

// DefaultProgress returns the record assumed for a card that has never been graded
func DefaultProgress() models.ReviewProgress {
	return models.ReviewProgress{
		Status:       models.StatusLearning,
		Repetitions:  0,
		IntervalDays: 0,
		EaseFactor:   DefaultEaseFactor,
	}
}

// ComputeNext returns the progress record that results from grading a card at now.
// A nil previous record means the card has never been graded.
// The function is pure: it does not modify previous and reads no clock.
func ComputeNext(previous *models.ReviewProgress, grade Grade, now time.Time) (models.ReviewProgress, error) {
	if !grade.IsValid() {
		return models.ReviewProgress{}, fmt.Errorf("%w: %d", ErrInvalidGrade, int(grade))
	}

	next := DefaultProgress()
	if previous != nil {
		next = *previous
	}

	ef0 := next.EaseFactor
	rep0 := next.Repetitions
	int0 := next.IntervalDays

	switch grade {
	case Again:
		next.EaseFactor = math.Max(MinEaseFactor, ef0-againPenalty)
		next.Repetitions = 0
		next.IntervalDays = 0
		next.Status = models.StatusLearning
	case Hard:
		next.EaseFactor = math.Max(MinEaseFactor, ef0-hardPenalty)
		next.Repetitions = rep0 + 1
		base := int0
		if base == 0 {
			base = 1
		}
		next.IntervalDays = max(1, base)
		next.Status = models.StatusReview
	case Good:
		next.EaseFactor = math.Max(MinEaseFactor, ef0)
		next.Repetitions = rep0 + 1
		next.IntervalDays = growInterval(int0, next.EaseFactor, goodFirstInterval)
		next.Status = models.StatusReview
	case Easy:
		next.EaseFactor = ef0 + easyBonus
		next.Repetitions = rep0 + 1
		next.IntervalDays = growInterval(int0, next.EaseFactor, easyFirstInterval)
		next.Status = models.StatusReview
	}

	next.LearningStep++
	next.NextReviewAt = now.AddDate(0, 0, next.IntervalDays)

	return next, nil
}

// growInterval multiplies the previous interval by the ease factor,
// or starts at first when the card has no interval yet
func growInterval(previous int, easeFactor float64, first int) int {
	if previous <= 0 {
		return first
	}
	return int(math.Round(float64(previous) * easeFactor))
}

// IsMastered reports whether a card is considered learned for statistics.
// A card is mastered once it has survived at least five consecutive reviews
// and its interval has grown to a month or more.
func IsMastered(progress models.ReviewProgress) bool {
	return progress.Status == models.StatusReview &&
		progress.Repetitions >= 5 &&
		progress.IntervalDays >= 30
}
