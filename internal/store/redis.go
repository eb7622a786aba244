package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis caches each learner's progress map as a single JSON value
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a cache-backed store. A zero ttl keeps entries forever.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: "flashcards:progress:",
		ttl:    ttl,
	}
}

// Key returns the redis key holding a learner's progress map
func (r *Redis) Key(learnerID int64) string {
	return fmt.Sprintf("%s%d", r.prefix, learnerID)
}

func (r *Redis) Load(ctx context.Context, learnerID int64) (Progress, error) {
	raw, err := r.client.Get(ctx, r.Key(learnerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Progress{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load progress from redis: %v", ErrPersistence, err)
	}
	progress, err := DecodeProgress(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return progress, nil
}

func (r *Redis) Save(ctx context.Context, learnerID int64, progress Progress) error {
	raw, err := EncodeProgress(progress)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := r.client.Set(ctx, r.Key(learnerID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: failed to save progress to redis: %v", ErrPersistence, err)
	}
	return nil
}

// EncodeProgress serializes a progress map as a JSON object keyed by card ID
func EncodeProgress(progress Progress) ([]byte, error) {
	raw, err := json.Marshal(progress)
	if err != nil {
		return nil, fmt.Errorf("failed to encode progress: %v", err)
	}
	return raw, nil
}

// DecodeProgress parses the output of EncodeProgress
func DecodeProgress(raw []byte) (Progress, error) {
	progress := Progress{}
	if err := json.Unmarshal(raw, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode progress: %v", err)
	}
	return progress, nil
}
