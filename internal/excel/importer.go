package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/flashcards/pkg/models"
)

// DeckStore resolves deck names to decks, creating them on demand
type DeckStore interface {
	GetOrCreate(ctx context.Context, name string) (*models.Deck, bool, error)
}

// CardStore inserts or updates cards
type CardStore interface {
	Upsert(ctx context.Context, card *models.Card) (bool, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath      string // Path to the Excel or CSV file
	FrontColumn   string // Column with the card front
	BackColumn    string // Column with the card back
	ExampleColumn string // Column with a usage example (optional)
	AudioColumn   string // Column with an audio URL (optional)
	DeckColumn    string // Column with the deck name (optional, Excel only)
	DefaultDeck   string // Deck used when a row names none
	SheetName     string // Name of the sheet to import
	StartRow      int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		FrontColumn:   "A",
		BackColumn:    "B",
		ExampleColumn: "C",
		AudioColumn:   "D",
		DeckColumn:    "E",
		DefaultDeck:   "General",
		SheetName:     "Sheet1",
		StartRow:      2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	DecksCreated   int
	Created        int
	Updated        int
	Errors         []string
}

// Importer loads deck files into the card catalog
type Importer struct {
	decks DeckStore
	cards CardStore

	deckIDs map[string]int64
}

// NewImporter creates an importer writing through the given stores
func NewImporter(decks DeckStore, cards CardStore) *Importer {
	return &Importer{decks: decks, cards: cards}
}

// Import imports cards from an Excel or CSV file
func (im *Importer) Import(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	im.deckIDs = make(map[string]int64)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		return im.importFromCSV(ctx, config)
	}
	return im.importFromExcel(ctx, config)
}

// importFromExcel imports cards from an Excel file
func (im *Importer) importFromExcel(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	cols, err := resolveColumns(config)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		if isBlank(row) {
			continue
		}
		result.TotalProcessed++

		deck := cell(row, cols.deck)
		if deck == "" {
			deck = config.DefaultDeck
		}
		card := models.Card{
			Front:    cell(row, cols.front),
			Back:     cell(row, cols.back),
			Example:  cell(row, cols.example),
			AudioURL: cell(row, cols.audio),
		}
		if err := im.processCard(ctx, deck, card, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return result, nil
}

// importFromCSV imports cards from a CSV file.
// A row with only its first field set starts a new deck named by that field.
func (im *Importer) importFromCSV(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	cols, err := resolveColumns(config)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	currentDeck := config.DefaultDeck
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++

		if rowNum < config.StartRow || isBlank(row) {
			continue
		}

		// Deck header row, e.g. "Movement,,"
		if strings.TrimSpace(row[0]) != "" && isBlank(row[1:]) {
			currentDeck = strings.Trim(strings.TrimSpace(row[0]), "\"")
			continue
		}

		result.TotalProcessed++
		card := models.Card{
			Front:    cell(row, cols.front),
			Back:     cell(row, cols.back),
			Example:  cell(row, cols.example),
			AudioURL: cell(row, cols.audio),
		}
		if err := im.processCard(ctx, currentDeck, card, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
	return result, nil
}

// processCard handles the common logic for a card from any source
func (im *Importer) processCard(ctx context.Context, deckName string, card models.Card, result *ImportResult) error {
	card.Front = strings.TrimSpace(card.Front)
	card.Back = strings.TrimSpace(card.Back)
	if card.Front == "" {
		return fmt.Errorf("front cannot be empty")
	}
	if card.Back == "" {
		return fmt.Errorf("back cannot be empty")
	}

	deckID, err := im.deckID(ctx, deckName, result)
	if err != nil {
		return fmt.Errorf("failed to process deck: %w", err)
	}
	card.DeckID = deckID

	created, err := im.cards.Upsert(ctx, &card)
	if err != nil {
		return err
	}
	if created {
		result.Created++
	} else {
		result.Updated++
	}
	return nil
}

// deckID gets a deck by name or creates a new one if it doesn't exist
func (im *Importer) deckID(ctx context.Context, name string, result *ImportResult) (int64, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, ok := im.deckIDs[key]; ok {
		return id, nil
	}
	deck, created, err := im.decks.GetOrCreate(ctx, strings.TrimSpace(name))
	if err != nil {
		return 0, err
	}
	if created {
		result.DecksCreated++
	}
	im.deckIDs[key] = deck.ID
	return deck.ID, nil
}

type columns struct {
	front, back, example, audio, deck int
}

// resolveColumns converts column letters to zero-based indexes; -1 means unused
func resolveColumns(config ImportConfig) (columns, error) {
	idx := func(name string) (int, error) {
		if name == "" {
			return -1, nil
		}
		n, err := excelize.ColumnNameToNumber(name)
		if err != nil {
			return 0, fmt.Errorf("invalid column %q: %w", name, err)
		}
		return n - 1, nil
	}

	var c columns
	var err error
	if c.front, err = idx(config.FrontColumn); err != nil {
		return c, err
	}
	if c.back, err = idx(config.BackColumn); err != nil {
		return c, err
	}
	if c.example, err = idx(config.ExampleColumn); err != nil {
		return c, err
	}
	if c.audio, err = idx(config.AudioColumn); err != nil {
		return c, err
	}
	if c.deck, err = idx(config.DeckColumn); err != nil {
		return c, err
	}
	return c, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
