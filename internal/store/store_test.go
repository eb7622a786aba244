package store

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/flashcards/internal/logger"
	"github.com/example/flashcards/pkg/models"
)

var t0 = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

func record(cardID int64, reps int) models.ReviewProgress {
	return models.ReviewProgress{
		CardID:       cardID,
		Status:       models.StatusReview,
		NextReviewAt: t0.AddDate(0, 0, reps),
		Repetitions:  reps,
		LearningStep: reps,
		EaseFactor:   2.5,
		IntervalDays: reps,
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	got, err := m.Load(ctx, 1)
	if err != nil || len(got) != 0 {
		t.Fatalf("Load on empty store = %v, %v", got, err)
	}

	in := Progress{10: record(10, 1)}
	if err := m.Save(ctx, 1, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	in[11] = record(11, 2) // must not leak into the store

	got, err = m.Load(ctx, 1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[10] != record(10, 1) {
		t.Errorf("Load = %+v", got)
	}

	if other, _ := m.Load(ctx, 2); len(other) != 0 {
		t.Errorf("learner 2 sees %v", other)
	}
}

func TestMemorySeedsOnce(t *testing.T) {
	ctx := context.Background()
	m := NewSeededMemory(Progress{1: record(1, 3), 2: record(2, 0)})

	got, err := m.Load(ctx, 42)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("seeded Load returned %d records, want 2", len(got))
	}

	if err := m.Save(ctx, 42, Progress{1: record(1, 4)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ = m.Load(ctx, 42)
	if len(got) != 1 || got[1].Repetitions != 4 {
		t.Errorf("Load after Save = %+v, want last saved map", got)
	}

	if err := m.Save(ctx, 7, Progress{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, _ := m.Load(ctx, 7); len(got) != 0 {
		t.Errorf("learner with saved empty map was reseeded: %v", got)
	}
}

func TestEncodeDecodeProgress(t *testing.T) {
	in := Progress{3: record(3, 2), 9: record(9, 0)}
	raw, err := EncodeProgress(in)
	if err != nil {
		t.Fatalf("EncodeProgress: %v", err)
	}
	out, err := DecodeProgress(raw)
	if err != nil {
		t.Fatalf("DecodeProgress: %v", err)
	}
	if len(out) != 2 || !out[3].NextReviewAt.Equal(in[3].NextReviewAt) || out[9].Status != models.StatusReview {
		t.Errorf("decoded %+v", out)
	}

	if _, err := DecodeProgress([]byte("{")); err == nil {
		t.Error("DecodeProgress accepted malformed JSON")
	}
}

func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: "redis.invalid:6379",
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		},
		MaxRetries: -1,
	})
}

func TestRedisWrapsFailures(t *testing.T) {
	ctx := context.Background()
	r := NewRedis(unreachableRedis(), 0)

	if got := r.Key(17); got != "flashcards:progress:17" {
		t.Errorf("Key(17) = %q", got)
	}
	if _, err := r.Load(ctx, 17); !errors.Is(err, ErrPersistence) {
		t.Errorf("Load error = %v, want ErrPersistence", err)
	}
	if err := r.Save(ctx, 17, Progress{1: record(1, 1)}); !errors.Is(err, ErrPersistence) {
		t.Errorf("Save error = %v, want ErrPersistence", err)
	}
}

type failingStore struct{}

func (failingStore) Load(context.Context, int64) (Progress, error) {
	return nil, ErrPersistence
}

func (failingStore) Save(context.Context, int64, Progress) error {
	return ErrPersistence
}

func TestCachedFallsBackToDurable(t *testing.T) {
	ctx := context.Background()
	durable := NewMemory()
	_ = durable.Save(ctx, 5, Progress{1: record(1, 2)})
	cache := NewMemory()

	c := NewCached(cache, durable, logger.NewNop())
	got, err := c.Load(ctx, 5)
	if err != nil || len(got) != 1 {
		t.Fatalf("Load = %v, %v", got, err)
	}
	if filled, _ := cache.Load(ctx, 5); len(filled) != 1 {
		t.Errorf("cache not filled after durable load: %v", filled)
	}
}

func TestCachedToleratesCacheFailure(t *testing.T) {
	ctx := context.Background()
	durable := NewMemory()
	c := NewCached(failingStore{}, durable, logger.NewNop())

	if err := c.Save(ctx, 5, Progress{1: record(1, 1)}); err != nil {
		t.Fatalf("Save with broken cache: %v", err)
	}
	got, err := c.Load(ctx, 5)
	if err != nil || len(got) != 1 {
		t.Errorf("Load with broken cache = %v, %v", got, err)
	}
}

func TestCachedReportsDurableFailure(t *testing.T) {
	c := NewCached(NewMemory(), failingStore{}, logger.NewNop())
	if err := c.Save(context.Background(), 1, Progress{}); !errors.Is(err, ErrPersistence) {
		t.Errorf("Save error = %v, want ErrPersistence", err)
	}
}
