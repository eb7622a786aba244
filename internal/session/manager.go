package session

import (
	"context"
	"sync"
	"time"

	"github.com/example/flashcards/internal/logger"
	"github.com/example/flashcards/internal/store"
	"github.com/example/flashcards/pkg/models"
)

// Manager keeps at most one active session per learner.
// Front-ends handle updates on separate goroutines, so access is synchronized here.
type Manager struct {
	mu       sync.Mutex
	store    store.Store
	log      *logger.Logger
	sessions map[int64]*Controller
}

// NewManager creates a manager whose sessions persist through s
func NewManager(s store.Store, log *logger.Logger) *Manager {
	return &Manager{
		store:    s,
		log:      log,
		sessions: make(map[int64]*Controller),
	}
}

// Start begins a new session for the learner, replacing any active one
func (m *Manager) Start(ctx context.Context, learnerID int64, cards []models.Card, now time.Time) *Controller {
	c := NewController(m.store, learnerID, m.log)
	c.Start(ctx, cards, now)

	m.mu.Lock()
	m.sessions[learnerID] = c
	m.mu.Unlock()
	return c
}

// Get returns the learner's active session
func (m *Manager) Get(learnerID int64) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.sessions[learnerID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return c, nil
}

// End discards the learner's session; progress already saved is kept
func (m *Manager) End(learnerID int64) {
	m.mu.Lock()
	delete(m.sessions, learnerID)
	m.mu.Unlock()
}
