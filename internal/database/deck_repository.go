package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/flashcards/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// DeckRepository handles database operations for decks
type DeckRepository struct {
	db *sqlx.DB
}

// NewDeckRepository creates a new repository instance
func NewDeckRepository(db *sqlx.DB) *DeckRepository {
	return &DeckRepository{db: db}
}

// GetAll returns all decks ordered by name
func (r *DeckRepository) GetAll(ctx context.Context) ([]models.Deck, error) {
	var decks []models.Deck
	if err := r.db.SelectContext(ctx, &decks, "SELECT id, name, created_at FROM decks ORDER BY name"); err != nil {
		return nil, fmt.Errorf("failed to get decks: %w", err)
	}
	return decks, nil
}

// GetByID returns a deck by ID
func (r *DeckRepository) GetByID(ctx context.Context, id int64) (*models.Deck, error) {
	var deck models.Deck
	query := r.db.Rebind("SELECT id, name, created_at FROM decks WHERE id = ?")
	err := r.db.GetContext(ctx, &deck, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck by ID: %w", err)
	}
	return &deck, nil
}

// GetByName returns a deck by its name
func (r *DeckRepository) GetByName(ctx context.Context, name string) (*models.Deck, error) {
	var deck models.Deck
	query := r.db.Rebind("SELECT id, name, created_at FROM decks WHERE name = ?")
	err := r.db.GetContext(ctx, &deck, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck by name: %w", err)
	}
	return &deck, nil
}

// GetOrCreate returns the deck with the given name, creating it if necessary
func (r *DeckRepository) GetOrCreate(ctx context.Context, name string) (*models.Deck, bool, error) {
	deck, err := r.GetByName(ctx, name)
	if err == nil {
		return deck, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	var id int64
	query := r.db.Rebind("INSERT INTO decks (name) VALUES (?) RETURNING id")
	if err := r.db.QueryRowxContext(ctx, query, name).Scan(&id); err != nil {
		return nil, false, fmt.Errorf("failed to create deck: %w", err)
	}
	deck, err = r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return deck, true, nil
}
