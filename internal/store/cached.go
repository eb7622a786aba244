package store

import (
	"context"

	"github.com/example/flashcards/internal/logger"
)

// Cached reads from a fast cache and falls back to a durable store.
// Saves go to both; a cache failure is logged and does not fail the save.
type Cached struct {
	cache   Store
	durable Store
	log     *logger.Logger
}

// NewCached combines a cache with the durable store behind it
func NewCached(cache, durable Store, log *logger.Logger) *Cached {
	return &Cached{
		cache:   cache,
		durable: durable,
		log:     log.With("component", "CachedStore"),
	}
}

func (c *Cached) Load(ctx context.Context, learnerID int64) (Progress, error) {
	progress, err := c.cache.Load(ctx, learnerID)
	if err == nil && len(progress) > 0 {
		return progress, nil
	}
	if err != nil {
		c.log.Warn("cache load failed", "learner_id", learnerID, "error", err)
	}

	progress, err = c.durable.Load(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if len(progress) > 0 {
		if err := c.cache.Save(ctx, learnerID, progress); err != nil {
			c.log.Warn("cache fill failed", "learner_id", learnerID, "error", err)
		}
	}
	return progress, nil
}

func (c *Cached) Save(ctx context.Context, learnerID int64, progress Progress) error {
	if err := c.durable.Save(ctx, learnerID, progress); err != nil {
		return err
	}
	if err := c.cache.Save(ctx, learnerID, progress); err != nil {
		c.log.Warn("cache save failed", "learner_id", learnerID, "error", err)
	}
	return nil
}
