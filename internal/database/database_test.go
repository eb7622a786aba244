package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/flashcards/internal/store"
	"github.com/example/flashcards/pkg/models"
)

var t0 = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(Config{Type: TypeSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConnectRejectsUnknownType(t *testing.T) {
	if _, err := Connect(Config{Type: "oracle"}); err == nil {
		t.Error("Connect accepted an unknown database type")
	}
}

func TestProgressRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(openTestDB(t))

	got, err := repo.Load(ctx, 1)
	if err != nil || len(got) != 0 {
		t.Fatalf("Load on empty db = %v, %v", got, err)
	}

	in := store.Progress{
		10: {Status: models.StatusReview, NextReviewAt: t0.AddDate(0, 0, 2), Repetitions: 1, LearningStep: 1, EaseFactor: 2.5, IntervalDays: 2},
		11: {Status: models.StatusLearning, NextReviewAt: t0, Repetitions: 0, LearningStep: 3, EaseFactor: 1.3, IntervalDays: 0},
	}
	if err := repo.Save(ctx, 1, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err = repo.Load(ctx, 1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Load returned %d records, want 2", len(got))
	}
	p := got[10]
	if p.LearnerID != 1 || p.CardID != 10 || p.Status != models.StatusReview || p.IntervalDays != 2 || p.EaseFactor != 2.5 {
		t.Errorf("card 10 = %+v", p)
	}
	if !p.NextReviewAt.Equal(t0.AddDate(0, 0, 2)) {
		t.Errorf("NextReviewAt = %v", p.NextReviewAt)
	}

	// Overwrite one record; the other stays.
	update := store.Progress{10: {Status: models.StatusLearning, NextReviewAt: t0, LearningStep: 2, EaseFactor: 2.3}}
	if err := repo.Save(ctx, 1, update); err != nil {
		t.Fatalf("Save update: %v", err)
	}
	got, _ = repo.Load(ctx, 1)
	if got[10].Status != models.StatusLearning || got[10].LearningStep != 2 {
		t.Errorf("card 10 after update = %+v", got[10])
	}
	if _, ok := got[11]; !ok {
		t.Error("card 11 was removed by a save that did not mention it")
	}

	if other, _ := repo.Load(ctx, 2); len(other) != 0 {
		t.Errorf("learner 2 sees %v", other)
	}
}

func TestProgressRepositoryWrapsErrors(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgressRepository(db)
	db.Close()

	if _, err := repo.Load(context.Background(), 1); !errors.Is(err, store.ErrPersistence) {
		t.Errorf("Load on closed db error = %v, want ErrPersistence", err)
	}
	if err := repo.Save(context.Background(), 1, store.Progress{}); !errors.Is(err, store.ErrPersistence) {
		t.Errorf("Save on closed db error = %v, want ErrPersistence", err)
	}
}

func TestDeckAndCardRepositories(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	decks := NewDeckRepository(db)
	cards := NewCardRepository(db)

	deck, created, err := decks.GetOrCreate(ctx, "Verbs")
	if err != nil || !created {
		t.Fatalf("GetOrCreate = %v, %v, %v", deck, created, err)
	}
	again, created, err := decks.GetOrCreate(ctx, "Verbs")
	if err != nil || created || again.ID != deck.ID {
		t.Fatalf("second GetOrCreate = %v, %v, %v", again, created, err)
	}
	if _, err := decks.GetByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(999) error = %v", err)
	}

	for _, front := range []string{"go", "run", "see"} {
		c := &models.Card{DeckID: deck.ID, Front: front, Back: front + " (ru)"}
		if created, err := cards.Upsert(ctx, c); err != nil || !created {
			t.Fatalf("Upsert %s = %v, %v", front, created, err)
		}
	}
	c := &models.Card{DeckID: deck.ID, Front: "run", Back: "бежать", Example: "I run every day"}
	if created, err := cards.Upsert(ctx, c); err != nil || created {
		t.Fatalf("Upsert existing = %v, %v", created, err)
	}

	list, err := cards.GetByDeck(ctx, deck.ID)
	if err != nil {
		t.Fatalf("GetByDeck: %v", err)
	}
	if len(list) != 3 || list[0].Front != "go" || list[1].Back != "бежать" || list[2].Front != "see" {
		t.Errorf("GetByDeck = %+v", list)
	}

	all, err := decks.GetAll(ctx)
	if err != nil || len(all) != 1 {
		t.Errorf("GetAll decks = %v, %v", all, err)
	}
}

func TestLearnerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewLearnerRepository(openTestDB(t))

	if err := repo.Register(ctx, &models.Learner{ID: 100, Username: "anna"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := repo.SetNotification(ctx, 100, true, 18); err != nil {
		t.Fatalf("SetNotification: %v", err)
	}
	if err := repo.Register(ctx, &models.Learner{ID: 100, Username: "anna_k"}); err != nil {
		t.Fatalf("Register again: %v", err)
	}

	l, err := repo.GetByID(ctx, 100)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if l.Username != "anna_k" || l.NotificationHour != 18 || !l.NotificationEnabled {
		t.Errorf("learner = %+v", l)
	}

	due, err := repo.GetForNotification(ctx, 18)
	if err != nil || len(due) != 1 {
		t.Errorf("GetForNotification(18) = %v, %v", due, err)
	}
	if none, _ := repo.GetForNotification(ctx, 9); len(none) != 0 {
		t.Errorf("GetForNotification(9) = %v", none)
	}

	if err := repo.SetNotification(ctx, 5, true, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetNotification unknown learner error = %v", err)
	}
	if err := repo.SetNotification(ctx, 100, true, 24); err == nil {
		t.Error("SetNotification accepted hour 24")
	}
}
