// Package remote talks to the review API when scheduling lives on the server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sr "github.com/example/flashcards/internal/spaced_repetition"
	"github.com/example/flashcards/pkg/models"
)

const learnerHeader = "X-Learner-ID"

// Client calls the review API on behalf of one learner
type Client struct {
	baseURL   string
	learnerID int64
	http      *http.Client
}

// NewClient creates a client; a nil httpClient uses a client with a 10s timeout
func NewClient(baseURL string, learnerID int64, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		learnerID: learnerID,
		http:      httpClient,
	}
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("review api: status %d: %s", e.StatusCode, e.Message)
}

// GetReviewQueue returns the due cards of a deck, already filtered by the server
func (c *Client) GetReviewQueue(ctx context.Context, deckID int64) ([]models.Card, error) {
	var cards []models.Card
	if err := c.do(ctx, http.MethodGet, "/review-queue/"+strconv.FormatInt(deckID, 10), nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// SubmitReview grades a card and returns the progress computed by the server.
// The grade is sent as its quality code.
func (c *Client) SubmitReview(ctx context.Context, cardID int64, grade sr.Grade) (models.ReviewProgress, error) {
	quality, err := grade.Quality()
	if err != nil {
		return models.ReviewProgress{}, err
	}
	body := map[string]int{"quality": quality}

	var progress models.ReviewProgress
	if err := c.do(ctx, http.MethodPost, "/review/"+strconv.FormatInt(cardID, 10), body, &progress); err != nil {
		return models.ReviewProgress{}, err
	}
	return progress, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(learnerHeader, strconv.FormatInt(c.learnerID, 10))
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("review api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			msg = e.Error
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
