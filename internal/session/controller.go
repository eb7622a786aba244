package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/flashcards/internal/logger"
	sr "github.com/example/flashcards/internal/spaced_repetition"
	"github.com/example/flashcards/internal/store"
	"github.com/example/flashcards/pkg/models"
)

var (
	ErrSessionFinished  = errors.New("session: no cards left to grade")
	ErrNoActiveSession  = errors.New("session: no active session")
	ErrSessionNotLoaded = errors.New("session: Start has not been called")
	ErrCardMismatch     = errors.New("session: card is not the one being shown")
)

// Result describes the effect of one grading event
type Result struct {
	Card     models.Card
	Grade    sr.Grade
	Progress models.ReviewProgress
	Finished bool
}

// Summary counts what happened during a session
type Summary struct {
	SessionID string
	DueCards  int // size of the queue when the session started
	Graded    int
	ByGrade   map[sr.Grade]int
}

// Controller drives one learner's study session:
// current card, grade, schedule, save, requeue.
// Grading events are serialized; at most one is in flight per controller.
type Controller struct {
	id        string
	learnerID int64
	store     store.Store
	log       *logger.Logger

	mu       sync.Mutex
	progress store.Progress
	queue    *Queue
	summary  Summary
}

// NewController creates a controller that persists through s
func NewController(s store.Store, learnerID int64, log *logger.Logger) *Controller {
	id := uuid.NewString()
	return &Controller{
		id:        id,
		learnerID: learnerID,
		store:     s,
		log:       log.With("component", "StudySession", "session_id", id, "learner_id", learnerID),
	}
}

// ID returns the session identifier
func (c *Controller) ID() string {
	return c.id
}

// LearnerID returns the learner that owns the session
func (c *Controller) LearnerID() int64 {
	return c.learnerID
}

// Start loads the learner's progress and queues the cards that are due at now.
// A store failure is logged and the session starts as if no progress existed.
func (c *Controller) Start(ctx context.Context, cards []models.Card, now time.Time) {
	progress, err := c.store.Load(ctx, c.learnerID)
	if err != nil {
		c.log.Warn("failed to load progress, starting without history", "error", err)
		progress = store.Progress{}
	}
	if progress == nil {
		progress = store.Progress{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = progress

	due := sr.SelectDue(cards, progress, now)
	c.queue = NewQueue(due)
	c.summary = Summary{
		SessionID: c.id,
		DueCards:  len(due),
		ByGrade:   make(map[sr.Grade]int),
	}
	c.log.Info("study session started", "cards", len(cards), "due", len(due))
}

// Current returns the card awaiting a grade
func (c *Controller) Current() (models.Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue == nil {
		return models.Card{}, false
	}
	return c.queue.Current()
}

// Progress returns the in-memory record for a card, if any
func (c *Controller) Progress(cardID int64) (models.ReviewProgress, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.progress[cardID]
	return p, ok
}

// Finished reports whether the session has no cards left
func (c *Controller) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue == nil || c.queue.Finished()
}

// Position returns the queue index and length
func (c *Controller) Position() (index, length int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue == nil {
		return 0, 0
	}
	return c.queue.Index(), c.queue.Len()
}

// Remaining returns how many queue entries are left, requeued cards included
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue == nil {
		return 0
	}
	return c.queue.Remaining()
}

// Grade records the learner's grade for the current card.
// Invalid grades are rejected before anything changes. Saving is best effort:
// a store failure is logged and the session carries on from memory.
func (c *Controller) Grade(ctx context.Context, grade sr.Grade, now time.Time) (Result, error) {
	return c.grade(ctx, nil, grade, now)
}

// GradeCard is Grade for callers that know which card the learner saw.
// It fails with ErrCardMismatch when cardID is no longer the current card.
func (c *Controller) GradeCard(ctx context.Context, cardID int64, grade sr.Grade, now time.Time) (Result, error) {
	return c.grade(ctx, &cardID, grade, now)
}

func (c *Controller) grade(ctx context.Context, expected *int64, grade sr.Grade, now time.Time) (Result, error) {
	if !grade.IsValid() {
		return Result{}, fmt.Errorf("%w: %d", sr.ErrInvalidGrade, int(grade))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queue == nil {
		return Result{}, ErrSessionNotLoaded
	}
	card, ok := c.queue.Current()
	if !ok {
		return Result{}, ErrSessionFinished
	}
	if expected != nil && *expected != card.ID {
		return Result{}, fmt.Errorf("%w: got %d, showing %d", ErrCardMismatch, *expected, card.ID)
	}

	var previous *models.ReviewProgress
	if p, ok := c.progress[card.ID]; ok {
		previous = &p
	}
	next, err := sr.ComputeNext(previous, grade, now)
	if err != nil {
		return Result{}, err
	}
	next.LearnerID = c.learnerID
	next.CardID = card.ID
	c.progress[card.ID] = next

	c.save(ctx)

	c.queue.Advance(grade)
	c.summary.Graded++
	c.summary.ByGrade[grade]++

	c.log.Debug("card graded",
		"card_id", card.ID,
		"grade", grade.String(),
		"interval_days", next.IntervalDays,
		"queue_len", c.queue.Len(),
		"queue_index", c.queue.Index(),
	)

	return Result{
		Card:     card,
		Grade:    grade,
		Progress: next,
		Finished: c.queue.Finished(),
	}, nil
}

func (c *Controller) save(ctx context.Context) {
	if err := c.store.Save(ctx, c.learnerID, store.Clone(c.progress)); err != nil {
		c.log.Warn("failed to save progress", "error", err)
	}
}

// Summary returns the session statistics so far
func (c *Controller) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.summary
	s.ByGrade = make(map[sr.Grade]int, len(c.summary.ByGrade))
	for g, n := range c.summary.ByGrade {
		s.ByGrade[g] = n
	}
	return s
}
