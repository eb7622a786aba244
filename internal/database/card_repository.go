package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/flashcards/pkg/models"
)

// CardRepository handles database operations for cards
type CardRepository struct {
	db *sqlx.DB
}

// NewCardRepository creates a new repository instance
func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

const cardColumns = "id, deck_id, front, back, example, audio_url, created_at"

// GetByDeck returns the cards of a deck in insertion order
func (r *CardRepository) GetByDeck(ctx context.Context, deckID int64) ([]models.Card, error) {
	var cards []models.Card
	query := r.db.Rebind("SELECT " + cardColumns + " FROM cards WHERE deck_id = ? ORDER BY id")
	if err := r.db.SelectContext(ctx, &cards, query, deckID); err != nil {
		return nil, fmt.Errorf("failed to get cards by deck: %w", err)
	}
	return cards, nil
}

// GetAll returns every card in insertion order
func (r *CardRepository) GetAll(ctx context.Context) ([]models.Card, error) {
	var cards []models.Card
	if err := r.db.SelectContext(ctx, &cards, "SELECT "+cardColumns+" FROM cards ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	return cards, nil
}

// GetByID returns a card by ID
func (r *CardRepository) GetByID(ctx context.Context, id int64) (*models.Card, error) {
	var card models.Card
	query := r.db.Rebind("SELECT " + cardColumns + " FROM cards WHERE id = ?")
	err := r.db.GetContext(ctx, &card, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card by ID: %w", err)
	}
	return &card, nil
}

// Upsert inserts a card or, when the deck already has a card with the same
// front, updates its content. It reports whether a new row was created.
func (r *CardRepository) Upsert(ctx context.Context, card *models.Card) (bool, error) {
	var existing int64
	query := r.db.Rebind("SELECT id FROM cards WHERE deck_id = ? AND front = ?")
	err := r.db.GetContext(ctx, &existing, query, card.DeckID, card.Front)
	switch {
	case err == nil:
		card.ID = existing
		update := r.db.Rebind("UPDATE cards SET back = ?, example = ?, audio_url = ? WHERE id = ?")
		if _, err := r.db.ExecContext(ctx, update, card.Back, card.Example, card.AudioURL, card.ID); err != nil {
			return false, fmt.Errorf("failed to update card: %w", err)
		}
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("failed to look up card: %w", err)
	}

	insert := r.db.Rebind(`
		INSERT INTO cards (deck_id, front, back, example, audio_url)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	if err := r.db.QueryRowxContext(ctx, insert, card.DeckID, card.Front, card.Back, card.Example, card.AudioURL).Scan(&card.ID); err != nil {
		return false, fmt.Errorf("failed to create card: %w", err)
	}
	return true, nil
}
