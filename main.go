package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/example/flashcards/internal/api"
	"github.com/example/flashcards/internal/bot"
	"github.com/example/flashcards/internal/config"
	"github.com/example/flashcards/internal/database"
	"github.com/example/flashcards/internal/excel"
	"github.com/example/flashcards/internal/logger"
	"github.com/example/flashcards/internal/scheduler"
	"github.com/example/flashcards/internal/session"
	"github.com/example/flashcards/internal/store"
)

// logNotifier is used for reminders when the bot is disabled
type logNotifier struct {
	log *logger.Logger
}

func (n logNotifier) SendReminders(learnerID int64, dueCount int) error {
	n.log.Info("cards due", "learner_id", learnerID, "due", dueCount)
	return nil
}

func main() {
	importFile := flag.String("import", "", "import a deck file (.xlsx or .csv) and exit")
	importDeck := flag.String("deck", "", "deck name for rows that do not name one")
	flag.Parse()

	if err := run(*importFile, *importDeck); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires the application and blocks until a shutdown signal.
// Every resource it opens is released by a deferred call before it returns.
func run(importFile, importDeck string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	learners := database.NewLearnerRepository(db)
	decks := database.NewDeckRepository(db)
	cards := database.NewCardRepository(db)
	importer := excel.NewImporter(decks, cards)

	if importFile != "" {
		return runImport(ctx, log, importer, importFile, importDeck)
	}
	if cfg.SeedFile != "" {
		if err := runImport(ctx, log, importer, cfg.SeedFile, cfg.SeedDeck); err != nil {
			log.Error("seed import failed", "error", err)
		}
	}

	var progress store.Store = database.NewProgressRepository(db)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, progress cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			progress = store.NewCached(store.NewRedis(rdb, cfg.RedisCacheTTL), progress, log)
			log.Info("progress cache enabled", "addr", cfg.RedisAddr)
		}
	}

	var wg sync.WaitGroup
	var notifier scheduler.Notifier = logNotifier{log: log}

	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken, cfg.AdminUserIDs, bot.Deps{
			Learners: learners,
			Decks:    decks,
			Cards:    cards,
			Store:    progress,
			Sessions: session.NewManager(progress, log),
			Importer: importer,
			Log:      log,

			ReminderZone: cfg.NotificationZone,
		})
		if err != nil {
			return fmt.Errorf("failed to create bot: %w", err)
		}
		notifier = b
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bot error", "error", err)
				cancel()
			}
		}()
		defer b.Stop()
	} else {
		log.Info("TELEGRAM_BOT_TOKEN is not set, bot disabled")
	}

	if cfg.SchedulerEnabled {
		sched := scheduler.New(notifier, learners, cards, progress, scheduler.Options{
			StartHour: cfg.NotificationStartHour,
			EndHour:   cfg.NotificationEndHour,
			Location:  cfg.NotificationZone,
		}, log)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	var srv *http.Server
	if cfg.HTTPAddr != "" {
		srv = &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: api.NewRouter(api.NewHandler(cards, progress, log), log),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("review API listening", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server error", "error", err)
				cancel()
			}
		}()
	}

	log.Info("started, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info("shutting down")

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("error during shutdown", "error", err)
		}
	}
	wg.Wait()
	log.Info("stopped")
	return nil
}

func runImport(ctx context.Context, log *logger.Logger, importer *excel.Importer, file, deck string) error {
	cfg := excel.DefaultImportConfig()
	cfg.FilePath = file
	if deck != "" {
		cfg.DefaultDeck = deck
	}
	result, err := importer.Import(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", file, err)
	}
	log.Info("import finished",
		"file", file,
		"rows", result.TotalProcessed,
		"decks_created", result.DecksCreated,
		"created", result.Created,
		"updated", result.Updated,
		"errors", len(result.Errors))
	for _, e := range result.Errors {
		log.Warn("import row skipped", "error", e)
	}
	return nil
}
