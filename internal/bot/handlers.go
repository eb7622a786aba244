package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/flashcards/internal/excel"
	"github.com/example/flashcards/internal/session"
	sr "github.com/example/flashcards/internal/spaced_repetition"
	"github.com/example/flashcards/pkg/models"
)

const (
	callbackDecks = "decks"
	callbackStats = "stats"
	callbackStop  = "stop"
	prefixStudy   = "study:"
	prefixReveal  = "reveal:"
	prefixGrade   = "grade:"
)

// mainMenuButtons returns the buttons of the main menu
func mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📚 Decks", CallbackData: callbackDecks}},
		{{Text: "📊 Statistics", CallbackData: callbackStats}},
	}
}

// gradeButtons returns the four grade buttons for a card.
// The callback is "grade:<cardID>:<quality>".
func gradeButtons(cardID int64) [][]MenuButton {
	var row []MenuButton
	for _, g := range sr.Grades() {
		q, _ := g.Quality()
		row = append(row, MenuButton{
			Text:         gradeLabel(g),
			CallbackData: fmt.Sprintf("%s%d:%d", prefixGrade, cardID, q),
		})
	}
	return [][]MenuButton{row, {{Text: "⏹ Stop", CallbackData: callbackStop}}}
}

func gradeLabel(g sr.Grade) string {
	switch g {
	case sr.Again:
		return "🔁 Again"
	case sr.Hard:
		return "😓 Hard"
	case sr.Good:
		return "🙂 Good"
	case sr.Easy:
		return "😎 Easy"
	default:
		return g.String()
	}
}

func deckButtons(decks []models.Deck) [][]MenuButton {
	buttons := make([][]MenuButton, 0, len(decks))
	for _, d := range decks {
		buttons = append(buttons, []MenuButton{{Text: d.Name, CallbackData: prefixStudy + strconv.FormatInt(d.ID, 10)}})
	}
	return buttons
}

func revealButton(cardID int64) [][]MenuButton {
	return [][]MenuButton{{{Text: "👀 Show answer", CallbackData: prefixReveal + strconv.FormatInt(cardID, 10)}}}
}

// parseGradeCallback extracts the card and grade from "grade:<cardID>:<quality>"
func parseGradeCallback(data string) (int64, sr.Grade, error) {
	raw, ok := strings.CutPrefix(data, prefixGrade)
	if !ok {
		return 0, 0, fmt.Errorf("not a grade callback: %q", data)
	}
	rawCard, rawQuality, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, 0, fmt.Errorf("grade callback without card: %q", data)
	}
	cardID, err := strconv.ParseInt(rawCard, 10, 64)
	if err != nil || cardID <= 0 {
		return 0, 0, fmt.Errorf("invalid card id %q", rawCard)
	}
	q, err := strconv.Atoi(rawQuality)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: quality %q", sr.ErrInvalidGrade, rawQuality)
	}
	grade, err := sr.GradeFromQuality(q)
	if err != nil {
		return 0, 0, err
	}
	return cardID, grade, nil
}

// parseRevealCallback extracts the card from "reveal:<cardID>"
func parseRevealCallback(data string) (int64, error) {
	raw, ok := strings.CutPrefix(data, prefixReveal)
	if !ok {
		return 0, fmt.Errorf("not a reveal callback: %q", data)
	}
	cardID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cardID <= 0 {
		return 0, fmt.Errorf("invalid card id %q", raw)
	}
	return cardID, nil
}

// parseDeckID extracts a deck ID from "study:<id>" or a command argument
func parseDeckID(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), prefixStudy)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid deck id %q", s)
	}
	return id, nil
}

// parseNotifyArg parses "/notify <hour>" or "/notify off"
func parseNotifyArg(arg string) (enabled bool, hour int, err error) {
	arg = strings.TrimSpace(strings.ToLower(arg))
	if arg == "off" {
		return false, 0, nil
	}
	hour, err = strconv.Atoi(arg)
	if err != nil || hour < 0 || hour > 23 {
		return false, 0, fmt.Errorf("hour must be between 0 and 23")
	}
	return true, hour, nil
}

func formatFront(card models.Card, remaining int) string {
	return fmt.Sprintf("🃏 %s\n\n(%d left)", card.Front, remaining)
}

func formatBack(card models.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🃏 %s\n\n➡️ %s", card.Front, card.Back)
	if card.Example != "" {
		fmt.Fprintf(&b, "\n\n📝 %s", card.Example)
	}
	if card.AudioURL != "" {
		fmt.Fprintf(&b, "\n🔊 %s", card.AudioURL)
	}
	return b.String()
}

func formatSummary(s session.Summary) string {
	if s.DueCards == 0 {
		return "🎉 Nothing is due in this deck right now."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Session finished\n\nCards due: %d\nReviews: %d", s.DueCards, s.Graded)
	for _, g := range sr.Grades() {
		if n := s.ByGrade[g]; n > 0 {
			fmt.Fprintf(&b, "\n%s: %d", gradeLabel(g), n)
		}
	}
	return b.String()
}

func formatStatistics(st sr.Statistics) string {
	return fmt.Sprintf("📊 Your statistics\n\nCards: %d\nNew: %d\nLearning: %d\nReview: %d\nMastered: %d\nDue now: %d\nAverage ease: %.2f",
		st.TotalCards, st.New, st.Learning, st.Review, st.Mastered, st.Due, st.AvgEaseFactor)
}

func notifyText(hour int, zone *time.Location) string {
	return fmt.Sprintf("⏰ Reminders set for %02d:00 (%s).", hour, zone)
}

func reminderText(count int) string {
	if count == 1 {
		return "⏰ You have 1 card due for review."
	}
	return fmt.Sprintf("⏰ You have %d cards due for review.", count)
}

// handleCommand handles commands from users
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID

	switch message.Command() {
	case "start":
		learner := &models.Learner{ID: userID, Username: message.From.UserName, FirstName: message.From.FirstName}
		if err := b.deps.Learners.Register(ctx, learner); err != nil {
			b.log.Error("failed to register learner", "learner_id", userID, "error", err)
		}
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Hello, %s! Pick a deck and start reviewing.", message.From.FirstName))
		msg.ReplyMarkup = createKeyboard(mainMenuButtons())
		b.send(msg)

	case "menu":
		msg := tgbotapi.NewMessage(chatID, "Main menu")
		msg.ReplyMarkup = createKeyboard(mainMenuButtons())
		b.send(msg)

	case "decks":
		b.showDecks(ctx, chatID)

	case "study":
		deckID, err := parseDeckID(message.CommandArguments())
		if err != nil {
			b.send(tgbotapi.NewMessage(chatID, "Usage: /study <deckID>"))
			return
		}
		b.startStudy(ctx, chatID, userID, deckID)

	case "stats":
		b.showStatistics(ctx, chatID, userID)

	case "notify":
		enabled, hour, err := parseNotifyArg(message.CommandArguments())
		if err != nil {
			b.send(tgbotapi.NewMessage(chatID, "Usage: /notify <hour 0-23> or /notify off"))
			return
		}
		if err := b.deps.Learners.SetNotification(ctx, userID, enabled, hour); err != nil {
			b.log.Error("failed to update notifications", "learner_id", userID, "error", err)
			b.send(tgbotapi.NewMessage(chatID, "Could not update reminders. Send /start first."))
			return
		}
		text := "🔕 Reminders disabled."
		if enabled {
			text = notifyText(hour, b.reminderZone())
		}
		b.send(tgbotapi.NewMessage(chatID, text))

	case "import":
		if !b.isAdmin(userID) || b.deps.Importer == nil {
			b.send(tgbotapi.NewMessage(chatID, "This command is not available."))
			return
		}
		b.setAwaitingUpload(userID)
		b.send(tgbotapi.NewMessage(chatID, "Send an .xlsx or .csv file with columns: front, back, example, audio."))

	default:
		b.send(tgbotapi.NewMessage(chatID, "Unknown command. Use /menu."))
	}
}

// handleCallback handles button presses
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	userID := query.From.ID
	data := query.Data

	switch {
	case data == callbackDecks:
		b.showDecks(ctx, chatID)
	case data == callbackStats:
		b.showStatistics(ctx, chatID, userID)
	case data == callbackStop:
		b.finishSession(chatID, userID)
	case strings.HasPrefix(data, prefixStudy):
		deckID, err := parseDeckID(data)
		if err != nil {
			return
		}
		b.startStudy(ctx, chatID, userID, deckID)
	case strings.HasPrefix(data, prefixReveal):
		cardID, err := parseRevealCallback(data)
		if err != nil {
			b.log.Warn("ignoring reveal callback", "data", data, "error", err)
			return
		}
		b.revealCard(chatID, query.Message.MessageID, userID, cardID)
	case strings.HasPrefix(data, prefixGrade):
		cardID, grade, err := parseGradeCallback(data)
		if err != nil {
			b.log.Warn("ignoring grade callback", "data", data, "error", err)
			return
		}
		b.gradeCard(ctx, chatID, query.Message.MessageID, userID, cardID, grade)
	default:
		b.log.Warn("unknown callback", "data", data)
	}
}

func (b *Bot) showDecks(ctx context.Context, chatID int64) {
	decks, err := b.deps.Decks.GetAll(ctx)
	if err != nil {
		b.log.Error("failed to list decks", "error", err)
		b.send(tgbotapi.NewMessage(chatID, "Could not load decks."))
		return
	}
	if len(decks) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "No decks yet."))
		return
	}
	msg := tgbotapi.NewMessage(chatID, "Choose a deck:")
	msg.ReplyMarkup = createKeyboard(deckButtons(decks))
	b.send(msg)
}

func (b *Bot) startStudy(ctx context.Context, chatID, userID, deckID int64) {
	deck, err := b.deps.Decks.GetByID(ctx, deckID)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Deck not found."))
		return
	}
	cards, err := b.deps.Cards.GetByDeck(ctx, deck.ID)
	if err != nil {
		b.log.Error("failed to load cards", "deck_id", deck.ID, "error", err)
		b.send(tgbotapi.NewMessage(chatID, "Could not load cards."))
		return
	}

	c := b.deps.Sessions.Start(ctx, userID, cards, b.now())
	b.log.Info("session started", "learner_id", userID, "deck_id", deck.ID, "session_id", c.ID(), "due", c.Remaining())
	if c.Finished() {
		b.finishSession(chatID, userID)
		return
	}
	b.showFront(chatID, c)
}

func (b *Bot) showFront(chatID int64, c *session.Controller) {
	card, ok := c.Current()
	if !ok {
		return
	}
	msg := tgbotapi.NewMessage(chatID, formatFront(card, c.Remaining()))
	msg.ReplyMarkup = createKeyboard(revealButton(card.ID))
	b.send(msg)
}

// clearButtons removes the inline keyboard of a message that is no longer actionable
func (b *Bot) clearButtons(chatID int64, messageID int) {
	b.send(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	}))
}

func (b *Bot) revealCard(chatID int64, messageID int, userID, cardID int64) {
	c, err := b.deps.Sessions.Get(userID)
	if err != nil {
		b.clearButtons(chatID, messageID)
		b.send(tgbotapi.NewMessage(chatID, "No active session. Use /decks to start one."))
		return
	}
	card, ok := c.Current()
	if !ok || card.ID != cardID {
		b.log.Debug("ignoring reveal of a card that is not current", "learner_id", userID, "card_id", cardID)
		b.clearButtons(chatID, messageID)
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, formatBack(card), createKeyboard(gradeButtons(card.ID)))
	b.send(edit)
}

func (b *Bot) gradeCard(ctx context.Context, chatID int64, messageID int, userID, cardID int64, grade sr.Grade) {
	c, err := b.deps.Sessions.Get(userID)
	if err != nil {
		b.clearButtons(chatID, messageID)
		b.send(tgbotapi.NewMessage(chatID, "No active session. Use /decks to start one."))
		return
	}
	res, err := c.GradeCard(ctx, cardID, grade, b.now())
	switch {
	case errors.Is(err, session.ErrCardMismatch):
		b.log.Debug("ignoring grade for a card that is not current", "learner_id", userID, "error", err)
		b.clearButtons(chatID, messageID)
		return
	case errors.Is(err, session.ErrSessionFinished):
		b.clearButtons(chatID, messageID)
		b.finishSession(chatID, userID)
		return
	case err != nil:
		b.log.Warn("grading rejected", "learner_id", userID, "error", err)
		return
	}

	b.clearButtons(chatID, messageID)
	if res.Finished {
		b.finishSession(chatID, userID)
		return
	}
	b.showFront(chatID, c)
}

func (b *Bot) finishSession(chatID, userID int64) {
	c, err := b.deps.Sessions.Get(userID)
	if err != nil {
		return
	}
	b.deps.Sessions.End(userID)
	msg := tgbotapi.NewMessage(chatID, formatSummary(c.Summary()))
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	b.send(msg)
}

func (b *Bot) showStatistics(ctx context.Context, chatID, userID int64) {
	cards, err := b.deps.Cards.GetAll(ctx)
	if err != nil {
		b.log.Error("failed to load cards", "error", err)
		b.send(tgbotapi.NewMessage(chatID, "Could not load statistics."))
		return
	}
	progress, err := b.deps.Store.Load(ctx, userID)
	if err != nil {
		b.log.Warn("failed to load progress", "learner_id", userID, "error", err)
	}
	st := sr.ComputeStatistics(cards, progress, b.now())
	b.send(tgbotapi.NewMessage(chatID, formatStatistics(st)))
}

// handleDocument imports an uploaded deck file
func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	doc := message.Document
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		b.send(tgbotapi.NewMessage(chatID, "Only .xlsx and .csv files are supported."))
		return
	}

	path, err := b.downloadFile(ctx, doc.FileID, ext)
	if err != nil {
		b.log.Error("failed to download file", "error", err)
		b.send(tgbotapi.NewMessage(chatID, "Could not download the file."))
		return
	}
	defer os.Remove(path)

	cfg := excel.DefaultImportConfig()
	cfg.FilePath = path
	cfg.DefaultDeck = strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))
	result, err := b.deps.Importer.Import(ctx, cfg)
	if err != nil {
		b.log.Error("import failed", "file", doc.FileName, "error", err)
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Import failed: %v", err)))
		return
	}
	b.send(tgbotapi.NewMessage(chatID, formatImportResult(result)))
}

func (b *Bot) downloadFile(ctx context.Context, fileID, ext string) (string, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("failed to get file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	f, err := os.CreateTemp("", "deck-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return f.Name(), nil
}

func formatImportResult(r *excel.ImportResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📥 Import finished\n\nRows: %d\nNew decks: %d\nCreated: %d\nUpdated: %d",
		r.TotalProcessed, r.DecksCreated, r.Created, r.Updated)
	if len(r.Errors) > 0 {
		errs := r.Errors
		if len(errs) > 5 {
			errs = append(errs[:5:5], fmt.Sprintf("…and %d more", len(r.Errors)-5))
		}
		fmt.Fprintf(&b, "\n\nErrors:\n%s", strings.Join(errs, "\n"))
	}
	return b.String()
}
