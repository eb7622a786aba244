package spaced_repetition

import (
	"time"

	"github.com/example/flashcards/pkg/models"
)

// SelectDue returns the cards eligible for review at now.
// A card is due when it has no progress record or its next review time has passed.
// The input order is preserved; cards are not ranked by how overdue they are.
func SelectDue(cards []models.Card, progress map[int64]models.ReviewProgress, now time.Time) []models.Card {
	due := make([]models.Card, 0, len(cards))
	for _, card := range cards {
		p, ok := progress[card.ID]
		if !ok || p.IsDue(now) {
			due = append(due, card)
		}
	}
	return due
}

// CountDue returns how many cards SelectDue would return
func CountDue(cards []models.Card, progress map[int64]models.ReviewProgress, now time.Time) int {
	count := 0
	for _, card := range cards {
		p, ok := progress[card.ID]
		if !ok || p.IsDue(now) {
			count++
		}
	}
	return count
}

// QueueTypeFor derives the informational queue hint for a card.
// A nil record means the card is new.
func QueueTypeFor(progress *models.ReviewProgress) models.QueueType {
	switch {
	case progress == nil:
		return models.QueueNew
	case progress.Status == models.StatusReview:
		return models.QueueReview
	default:
		return models.QueueLearning
	}
}

// TagQueueTypes sets QueueType on each card from its progress record
func TagQueueTypes(cards []models.Card, progress map[int64]models.ReviewProgress) []models.Card {
	tagged := make([]models.Card, len(cards))
	for i, card := range cards {
		if p, ok := progress[card.ID]; ok {
			card.QueueType = QueueTypeFor(&p)
		} else {
			card.QueueType = QueueTypeFor(nil)
		}
		tagged[i] = card
	}
	return tagged
}
