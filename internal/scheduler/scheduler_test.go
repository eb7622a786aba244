package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/flashcards/internal/logger"
	"github.com/example/flashcards/internal/store"
	"github.com/example/flashcards/pkg/models"
)

type recordingNotifier struct {
	sent map[int64]int
	fail map[int64]bool
}

func (n *recordingNotifier) SendReminders(learnerID int64, count int) error {
	if n.fail[learnerID] {
		return errors.New("chat not found")
	}
	n.sent[learnerID] = count
	return nil
}

type learnersAt map[int][]models.Learner

func (l learnersAt) GetForNotification(_ context.Context, hour int) ([]models.Learner, error) {
	return l[hour], nil
}

type allCards []models.Card

func (c allCards) GetAll(context.Context) ([]models.Card, error) {
	return c, nil
}

func newTestScheduler(now time.Time, n Notifier, s store.Store) *Scheduler {
	return newTestSchedulerIn(nil, now, n, s)
}

func newTestSchedulerIn(loc *time.Location, now time.Time, n Notifier, s store.Store) *Scheduler {
	learners := learnersAt{
		18: {{ID: 1}, {ID: 2}, {ID: 3}},
	}
	cards := allCards{{ID: 10}, {ID: 11}, {ID: 12}}
	sch := New(n, learners, cards, s, Options{StartHour: 8, EndHour: 22, Location: loc}, logger.NewNop())
	sch.now = func() time.Time { return now }
	return sch
}

func TestCheckAndSendReminders(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 10, 18, 30, 0, 0, time.UTC)

	mem := store.NewMemory()
	// Learner 2 has reviewed everything recently: nothing due.
	future := now.AddDate(0, 0, 3)
	_ = mem.Save(ctx, 2, store.Progress{
		10: {NextReviewAt: future}, 11: {NextReviewAt: future}, 12: {NextReviewAt: future},
	})
	// Learner 1 has one card scheduled later, two due.
	_ = mem.Save(ctx, 1, store.Progress{10: {NextReviewAt: future}})

	n := &recordingNotifier{sent: map[int64]int{}, fail: map[int64]bool{3: true}}
	sent, err := newTestScheduler(now, n, mem).CheckAndSendReminders(ctx)
	if err != nil {
		t.Fatalf("CheckAndSendReminders: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
	if n.sent[1] != 2 {
		t.Errorf("learner 1 reminded about %d cards, want 2", n.sent[1])
	}
	if _, ok := n.sent[2]; ok {
		t.Error("learner 2 reminded with nothing due")
	}
}

func TestCheckAndSendRemindersOutsideWindow(t *testing.T) {
	now := time.Date(2024, time.March, 10, 23, 0, 0, 0, time.UTC)
	n := &recordingNotifier{sent: map[int64]int{}}
	sent, err := newTestScheduler(now, n, store.NewMemory()).CheckAndSendReminders(context.Background())
	if err != nil || sent != 0 || len(n.sent) != 0 {
		t.Errorf("outside window: sent=%d err=%v notified=%v", sent, err, n.sent)
	}
}

func TestRunManualCheck(t *testing.T) {
	now := time.Date(2024, time.March, 10, 3, 0, 0, 0, time.UTC)
	n := &recordingNotifier{sent: map[int64]int{}}
	count, err := newTestScheduler(now, n, store.NewMemory()).RunManualCheck(context.Background(), 5)
	if err != nil {
		t.Fatalf("RunManualCheck: %v", err)
	}
	if count != 3 || n.sent[5] != 3 {
		t.Errorf("count = %d, sent = %v", count, n.sent)
	}
}

func TestNextHour(t *testing.T) {
	got := nextHour(time.Date(2024, 1, 1, 10, 42, 5, 0, time.UTC))
	if want := time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("nextHour = %v, want %v", got, want)
	}
}

func TestRemindersUseConfiguredLocation(t *testing.T) {
	ctx := context.Background()
	plusTwo := time.FixedZone("UTC+2", 2*60*60)
	// 16:30 UTC is 18:30 in UTC+2, the hour learners 1-3 asked for
	now := time.Date(2024, time.March, 10, 16, 30, 0, 0, time.UTC)

	n := &recordingNotifier{sent: map[int64]int{}}
	sent, err := newTestSchedulerIn(plusTwo, now, n, store.NewMemory()).CheckAndSendReminders(ctx)
	if err != nil {
		t.Fatalf("CheckAndSendReminders: %v", err)
	}
	if sent != 3 {
		t.Errorf("sent = %d, want 3", sent)
	}

	n = &recordingNotifier{sent: map[int64]int{}}
	sent, _ = newTestScheduler(now, n, store.NewMemory()).CheckAndSendReminders(ctx)
	if sent != 0 {
		t.Errorf("UTC scheduler at 16:30 sent %d reminders, want 0", sent)
	}

	// 21:30 UTC is 23:30 in UTC+2, outside the 8-22 window
	late := time.Date(2024, time.March, 10, 21, 30, 0, 0, time.UTC)
	n = &recordingNotifier{sent: map[int64]int{}}
	if sent, _ := newTestSchedulerIn(plusTwo, late, n, store.NewMemory()).CheckAndSendReminders(ctx); sent != 0 {
		t.Errorf("sent %d reminders outside the local window", sent)
	}
}

func TestNextHourKeepsLocation(t *testing.T) {
	zone := time.FixedZone("UTC+5:30", 5*60*60+30*60)
	got := nextHour(time.Date(2024, 1, 1, 10, 42, 5, 0, zone))
	if want := time.Date(2024, 1, 1, 11, 0, 0, 0, zone); !got.Equal(want) || got.Location() != zone {
		t.Errorf("nextHour = %v, want %v", got, want)
	}
}
