// Package api serves the remote review API: the due queue of a deck and
// grading of single cards, with scheduling computed on the server.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/flashcards/internal/database"
	"github.com/example/flashcards/internal/logger"
	"github.com/example/flashcards/internal/store"
	"github.com/example/flashcards/pkg/models"
)

// LearnerHeader carries the authenticated learner ID, set by the gateway in front of the API
const LearnerHeader = "X-Learner-ID"

// CardSource provides card content to the API
type CardSource interface {
	GetByDeck(ctx context.Context, deckID int64) ([]models.Card, error)
	GetByID(ctx context.Context, id int64) (*models.Card, error)
}

// Handler holds all dependencies needed by HTTP handlers
type Handler struct {
	cards CardSource
	store store.Store
	log   *logger.Logger
	now   func() time.Time
}

// NewHandler creates a Handler with the given dependencies
func NewHandler(cards CardSource, s store.Store, log *logger.Logger) *Handler {
	return &Handler{
		cards: cards,
		store: s,
		log:   log.With("component", "ReviewAPI"),
		now:   time.Now,
	}
}

// errorResponse is the body of every non-2xx response
type errorResponse struct {
	Error string `json:"error"`
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// learnerID reads the learner from the request header
func learnerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.GetHeader(LearnerHeader), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusUnauthorized, "missing or invalid "+LearnerHeader+" header")
		return 0, false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// handleSourceError writes the response for a card lookup failure.
// Returns true if an error was handled (caller should return).
func (h *Handler) handleSourceError(c *gin.Context, err error, entity string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, database.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, entity+" not found")
		return true
	}
	h.log.Error("card source error", "error", err, "entity", entity)
	abortWithError(c, http.StatusInternalServerError, "internal error")
	return true
}

// loadProgress returns the learner's progress; a store failure yields an empty map
func (h *Handler) loadProgress(ctx context.Context, learner int64) store.Progress {
	progress, err := h.store.Load(ctx, learner)
	if err != nil {
		h.log.Warn("failed to load progress", "learner_id", learner, "error", err)
		return store.Progress{}
	}
	if progress == nil {
		return store.Progress{}
	}
	return progress
}
