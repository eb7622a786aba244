// Package session runs study sessions over the cards that are due for a learner.
package session

import (
	sr "github.com/example/flashcards/internal/spaced_repetition"
	"github.com/example/flashcards/pkg/models"
)

// Queue is the ordered working list of one study session.
// It is built once from the due cards and only grows: a card graded AGAIN
// is appended to the end so it comes back later in the same session.
type Queue struct {
	cards []models.Card
	index int
}

// NewQueue snapshots due into a new queue. Later changes to due do not affect it.
func NewQueue(due []models.Card) *Queue {
	cards := make([]models.Card, len(due))
	copy(cards, due)
	return &Queue{cards: cards}
}

// Current returns the card at the head of the queue.
// ok is false once the session is finished.
func (q *Queue) Current() (card models.Card, ok bool) {
	if q.Finished() {
		return models.Card{}, false
	}
	return q.cards[q.index], true
}

// Advance applies the outcome of grading the current card.
// It reports false when the queue was already finished.
func (q *Queue) Advance(grade sr.Grade) bool {
	if q.Finished() {
		return false
	}
	if grade == sr.Again {
		q.cards = append(q.cards, q.cards[q.index])
	}
	q.index++
	return true
}

// Finished reports whether every queued card has been graded
func (q *Queue) Finished() bool {
	return q.index >= len(q.cards)
}

func (q *Queue) Len() int   { return len(q.cards) }
func (q *Queue) Index() int { return q.index }

// Remaining returns how many gradings are left if no further card is failed
func (q *Queue) Remaining() int {
	return len(q.cards) - q.index
}
