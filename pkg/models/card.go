package models

import "time"

// QueueType is an informational hint about why a card is in a review queue
type QueueType string

const (
	QueueNew      QueueType = "NEW"
	QueueLearning QueueType = "LEARNING"
	QueueReview   QueueType = "REVIEW"
)

// Card represents a flashcard inside a deck
type Card struct {
	ID        int64     `json:"id" db:"id"`
	DeckID    int64     `json:"deckId" db:"deck_id"`
	Front     string    `json:"front" db:"front"`
	Back      string    `json:"back" db:"back"`
	Example   string    `json:"example,omitempty" db:"example"`
	AudioURL  string    `json:"audio,omitempty" db:"audio_url"`
	QueueType QueueType `json:"queueType,omitempty" db:"-"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
