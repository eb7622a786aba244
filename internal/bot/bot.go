package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/flashcards/internal/excel"
	"github.com/example/flashcards/internal/logger"
	"github.com/example/flashcards/internal/session"
	"github.com/example/flashcards/internal/store"
	"github.com/example/flashcards/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// LearnerRepository is what the bot needs to know about learners
type LearnerRepository interface {
	Register(ctx context.Context, learner *models.Learner) error
	SetNotification(ctx context.Context, learnerID int64, enabled bool, hour int) error
}

// DeckRepository lists decks
type DeckRepository interface {
	GetAll(ctx context.Context) ([]models.Deck, error)
	GetByID(ctx context.Context, id int64) (*models.Deck, error)
}

// CardRepository lists cards
type CardRepository interface {
	GetByDeck(ctx context.Context, deckID int64) ([]models.Card, error)
	GetAll(ctx context.Context) ([]models.Card, error)
}

// sender is the part of the Telegram API the handlers talk to
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Deps groups the collaborators of the bot
type Deps struct {
	Learners LearnerRepository
	Decks    DeckRepository
	Cards    CardRepository
	Store    store.Store
	Sessions *session.Manager
	Importer *excel.Importer
	Log      *logger.Logger

	// ReminderZone is the time zone of notification hours; nil means UTC
	ReminderZone *time.Location
}

// Bot is the Telegram front-end for study sessions
type Bot struct {
	client       *tgbotapi.BotAPI
	api          sender
	token        string
	deps         Deps
	log          *logger.Logger
	adminUserIDs map[int64]bool
	now          func() time.Time
	httpClient   *http.Client

	mu                 sync.Mutex
	awaitingFileUpload map[int64]bool
}

// New creates a new bot instance
func New(token string, adminIDs []int64, deps Deps) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}

	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	return &Bot{
		token:              token,
		deps:               deps,
		log:                deps.Log.With("component", "TelegramBot"),
		adminUserIDs:       admins,
		now:                time.Now,
		httpClient:         &http.Client{Timeout: 30 * time.Second},
		awaitingFileUpload: make(map[int64]bool),
	}, nil
}

// Start connects to Telegram and handles updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.client = botAPI
	b.api = botAPI
	b.log.Info("authorized on account", "username", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			botAPI.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Stop stops receiving updates
func (b *Bot) Stop() {
	if b.client != nil {
		b.client.StopReceivingUpdates()
	}
	b.log.Info("bot stopped")
}

// SendReminders implements the scheduler.Notifier interface.
// For private chats the Telegram user ID is also the chat ID.
func (b *Bot) SendReminders(learnerID int64, count int) error {
	if b.api == nil {
		return fmt.Errorf("bot is not connected")
	}
	msg := tgbotapi.NewMessage(learnerID, reminderText(count))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "📚 Study now", CallbackData: callbackDecks}}})
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	b.log.Info("reminder sent", "learner_id", learnerID, "due", count)
	return nil
}

func (b *Bot) reminderZone() *time.Location {
	if b.deps.ReminderZone == nil {
		return time.UTC
	}
	return b.deps.ReminderZone
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn("failed to send message", "error", err)
	}
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Document != nil && b.takeAwaitingUpload(update.Message.From.ID):
		b.handleDocument(ctx, update.Message)
	case update.Message != nil:
		msg := tgbotapi.NewMessage(update.Message.Chat.ID, "I don't understand. Use /menu to show the main menu.")
		msg.ReplyMarkup = createKeyboard(mainMenuButtons())
		b.send(msg)
	}
}

func (b *Bot) setAwaitingUpload(userID int64) {
	b.mu.Lock()
	b.awaitingFileUpload[userID] = true
	b.mu.Unlock()
}

func (b *Bot) takeAwaitingUpload(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.awaitingFileUpload[userID] {
		return false
	}
	delete(b.awaitingFileUpload, userID)
	return true
}
