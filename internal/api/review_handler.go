package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	sr "github.com/example/flashcards/internal/spaced_repetition"
	"github.com/example/flashcards/pkg/models"
)

// SubmitReviewRequest is the body of POST /review/:cardId
type SubmitReviewRequest struct {
	Quality *int `json:"quality"`
}

// GET /review-queue/:deckId
func (h *Handler) getReviewQueue(c *gin.Context) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}
	deckID, ok := pathID(c, "deckId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	cards, err := h.cards.GetByDeck(ctx, deckID)
	if h.handleSourceError(c, err, "deck") {
		return
	}

	progress := h.loadProgress(ctx, learner)
	due := sr.TagQueueTypes(sr.SelectDue(cards, progress, h.now()), progress)
	c.JSON(http.StatusOK, due)
}

// POST /review/:cardId
func (h *Handler) submitReview(c *gin.Context) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}
	cardID, ok := pathID(c, "cardId")
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quality == nil {
		abortWithError(c, http.StatusBadRequest, "body must be {\"quality\": 1|3|4|5}")
		return
	}
	grade, err := sr.GradeFromQuality(*req.Quality)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	if _, err := h.cards.GetByID(ctx, cardID); h.handleSourceError(c, err, "card") {
		return
	}

	progress := h.loadProgress(ctx, learner)
	var previous *models.ReviewProgress
	if p, ok := progress[cardID]; ok {
		previous = &p
	}
	next, err := sr.ComputeNext(previous, grade, h.now())
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	next.LearnerID = learner
	next.CardID = cardID
	progress[cardID] = next

	if err := h.store.Save(ctx, learner, progress); err != nil {
		h.log.Warn("failed to save progress", "learner_id", learner, "card_id", cardID, "error", err)
	}

	h.log.Debug("review submitted", "learner_id", learner, "card_id", cardID, "grade", grade.String(), "interval_days", next.IntervalDays)
	c.JSON(http.StatusOK, next)
}
