package spaced_repetition

import (
	"time"

	"github.com/example/flashcards/pkg/models"
)

// Statistics summarizes a learner's progress over a set of cards
type Statistics struct {
	TotalCards    int
	New           int
	Learning      int
	Review        int
	Mastered      int
	Due           int
	AvgEaseFactor float64
}

// ComputeStatistics counts cards by scheduling state. Progress records for
// cards outside the set are ignored.
func ComputeStatistics(cards []models.Card, progress map[int64]models.ReviewProgress, now time.Time) Statistics {
	stats := Statistics{
		TotalCards:    len(cards),
		AvgEaseFactor: DefaultEaseFactor,
	}

	var efSum float64
	seen := 0
	for _, card := range cards {
		p, ok := progress[card.ID]
		if !ok {
			stats.New++
			stats.Due++
			continue
		}
		seen++
		efSum += p.EaseFactor
		if p.Status == models.StatusReview {
			stats.Review++
		} else {
			stats.Learning++
		}
		if IsMastered(p) {
			stats.Mastered++
		}
		if p.IsDue(now) {
			stats.Due++
		}
	}
	if seen > 0 {
		stats.AvgEaseFactor = efSum / float64(seen)
	}
	return stats
}
