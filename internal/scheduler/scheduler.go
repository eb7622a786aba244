package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/flashcards/internal/logger"
	sr "github.com/example/flashcards/internal/spaced_repetition"
	"github.com/example/flashcards/internal/store"
	"github.com/example/flashcards/pkg/models"
)

// Notifier delivers reminders; delivery itself lives outside this package
type Notifier interface {
	SendReminders(learnerID int64, dueCount int) error
}

// LearnerSource lists learners who want a reminder at a given hour
type LearnerSource interface {
	GetForNotification(ctx context.Context, hour int) ([]models.Learner, error)
}

// CardSource lists every card a learner can study
type CardSource interface {
	GetAll(ctx context.Context) ([]models.Card, error)
}

// Options configures the reminder window
type Options struct {
	StartHour int // first hour (inclusive) reminders may be sent
	EndHour   int // last hour (inclusive) reminders may be sent

	// Location is the time zone of the hours above and of learners'
	// notification hours; nil means UTC
	Location *time.Location
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	learners  LearnerSource
	cards     CardSource
	store     store.Store
	opts      Options
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new scheduler instance
func New(notifier Notifier, learners LearnerSource, cards CardSource, s store.Store, opts Options, log *logger.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(opts.Location),
		notifier:  notifier,
		learners:  learners,
		cards:     cards,
		store:     s,
		opts:      opts,
		log:       log.With("component", "ReminderScheduler"),
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	// Hourly check for learners who need a reminder
	if _, err := s.scheduler.Every(1).Hour().StartAt(nextHour(s.now().In(s.opts.Location))).Do(s.runReminders); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.log.Info("reminder scheduler started",
		"start_hour", s.opts.StartHour,
		"end_hour", s.opts.EndHour,
		"location", s.opts.Location.String())
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.CheckAndSendReminders(ctx); err != nil {
		s.log.Error("reminder run failed", "error", err)
	}
}

// CheckAndSendReminders sends a reminder to every learner whose notification hour
// is now and who has due cards. It returns the number of reminders sent.
func (s *Scheduler) CheckAndSendReminders(ctx context.Context) (int, error) {
	now := s.now().In(s.opts.Location)
	hour := now.Hour()
	if hour < s.opts.StartHour || hour > s.opts.EndHour {
		s.log.Debug("outside notification hours, skipping reminders", "hour", hour)
		return 0, nil
	}

	learners, err := s.learners.GetForNotification(ctx, hour)
	if err != nil {
		return 0, err
	}
	if len(learners) == 0 {
		return 0, nil
	}

	cards, err := s.cards.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, learner := range learners {
		count, err := s.dueCount(ctx, learner.ID, cards, now)
		if err != nil {
			s.log.Warn("failed to count due cards", "learner_id", learner.ID, "error", err)
			continue
		}
		if count == 0 {
			continue
		}
		if err := s.notifier.SendReminders(learner.ID, count); err != nil {
			s.log.Warn("failed to send reminder", "learner_id", learner.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// RunManualCheck sends a reminder to one learner regardless of the hour
func (s *Scheduler) RunManualCheck(ctx context.Context, learnerID int64) (int, error) {
	cards, err := s.cards.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	count, err := s.dueCount(ctx, learnerID, cards, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return count, s.notifier.SendReminders(learnerID, count)
	}
	return 0, nil
}

func (s *Scheduler) dueCount(ctx context.Context, learnerID int64, cards []models.Card, now time.Time) (int, error) {
	progress, err := s.store.Load(ctx, learnerID)
	if err != nil {
		return 0, err
	}
	return sr.CountDue(cards, progress, now), nil
}

// nextHour returns the start of the next wall-clock hour in t's location
func nextHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
}
