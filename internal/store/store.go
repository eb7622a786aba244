// Package store defines where review progress lives between study sessions.
package store

import (
	"context"
	"errors"

	"github.com/example/flashcards/pkg/models"
)

// ErrPersistence wraps every load or save failure of a progress store.
// Callers treat it as non-fatal: session state in memory stays authoritative.
var ErrPersistence = errors.New("store: persistence failure")

// Progress maps card IDs to the learner's progress record for that card
type Progress = map[int64]models.ReviewProgress

// Store loads and saves a learner's whole progress map
type Store interface {
	Load(ctx context.Context, learnerID int64) (Progress, error)
	Save(ctx context.Context, learnerID int64, progress Progress) error
}

// Clone returns a copy of p that can be mutated independently
func Clone(p Progress) Progress {
	out := make(Progress, len(p))
	for id, rec := range p {
		out[id] = rec
	}
	return out
}
