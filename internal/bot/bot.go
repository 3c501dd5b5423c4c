package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stitchlabs/stitch-bot/internal/models"
	"github.com/stitchlabs/stitch-bot/internal/session"
	"github.com/stitchlabs/stitch-bot/internal/storage"
	"github.com/stitchlabs/stitch-bot/internal/submission"
	"github.com/stitchlabs/stitch-bot/internal/tasks"
	"github.com/stitchlabs/stitch-bot/internal/validate"
	"go.uber.org/zap"
)

const connectWalletCallback = "connect_wallet"

// telegramAPI is the slice of *tgbotapi.BotAPI the bot actually uses,
// split out so conversation flows can be tested against a fake.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type Bot struct {
	api       telegramAPI
	storage   storage.Storage
	picker    *tasks.Picker
	processor *submission.Processor
	sessions  *session.Manager
	cooldown  time.Duration
	logger    *zap.Logger
	fetch     func(url string) ([]byte, error)
}

func New(token string, store storage.Storage, picker *tasks.Picker, processor *submission.Processor, cooldown time.Duration, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cooldown <= 0 {
		cooldown = tasks.DefaultCooldown
	}

	return &Bot{
		api:       api,
		storage:   store,
		picker:    picker,
		processor: processor,
		sessions:  session.NewManager(),
		cooldown:  cooldown,
		logger:    logger,
		fetch:     fetchURL,
	}, nil
}

// Start consumes updates via long polling until the channel closes.
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		go b.handleUpdate(update)
	}

	return nil
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	ctx := context.Background()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	// The session lock is held for the whole event so one user's
	// messages are processed strictly in order.
	sess := b.sessions.Get(message.From.ID)
	sess.Lock()
	defer sess.Unlock()

	if message.IsCommand() {
		b.handleCommand(ctx, message, sess)
		return
	}

	switch {
	case len(message.Photo) > 0:
		b.handlePhoto(ctx, message, sess)
	case message.Voice != nil:
		b.handleVoice(ctx, message, sess)
	default:
		b.handleText(ctx, message, sess)
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message, sess *session.Session) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "task":
		b.handleTask(ctx, message, sess)
	case "help":
		b.handleHelp(message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to the Stitch AI bot! 🧵
Connect a wallet to start earning tasks: audio transcriptions, image submissions and text explanations.

Tap the button below to connect, then use /task to get your first task.`

	msg := tgbotapi.NewMessage(message.Chat.ID, welcome)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Connect wallet", connectWalletCallback),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send welcome message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Connect your wallet
/task - Get a random task (one per 24 hours)
/help - Show this help message

After /task, reply with the content the task asks for:
- a voice message for audio tasks
- a photo (at least 400x400) for image tasks
- a text message for text tasks`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil {
		return
	}

	sess := b.sessions.Get(query.From.ID)
	sess.Lock()
	defer sess.Unlock()

	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Error("Failed to answer callback query",
			zap.Error(err),
			zap.Int64("user_id", query.From.ID))
	}

	if query.Data != connectWalletCallback {
		return
	}

	chatID := query.From.ID
	if query.Message != nil {
		chatID = query.Message.Chat.ID
	}

	sess.AwaitingWallet = true
	b.sendMessage(chatID, "Send your wallet address. It starts with 0x and is 42 characters long.")
}

func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message, sess *session.Session) {
	if sess.AwaitingWallet {
		b.handleWalletAddress(ctx, message, sess)
		return
	}

	if sess.ActiveTaskID != 0 {
		task, ok := b.activeTask(ctx, message, sess)
		if !ok {
			return
		}
		sub, err := b.processor.ProcessText(ctx, message.From.ID, task, message.Text)
		b.finishSubmission(message, sess, task, sub, err)
		return
	}

	// Idle text with nothing pending gets a gentle nudge rather than
	// silence, so users aren't left guessing.
	b.sendMessage(message.Chat.ID, "I didn't catch that. Use /start to connect a wallet or /task to get a task.")
}

func (b *Bot) handleWalletAddress(ctx context.Context, message *tgbotapi.Message, sess *session.Session) {
	// One attempt per connect tap; a failed attempt returns to idle and
	// the user re-triggers the connect button.
	sess.AwaitingWallet = false

	address := strings.TrimSpace(message.Text)
	if !validate.WalletAddress(address) {
		b.sendErrorMessage(message.Chat.ID, "That doesn't look like a wallet address. It must start with 0x and be exactly 42 characters. Tap Connect wallet to try again.")
		return
	}

	if _, err := b.storage.UpsertWallet(ctx, message.From.ID, address); err != nil {
		b.logger.Error("Failed to save wallet address",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your wallet. Please try again.")
		return
	}

	b.sendMessage(message.Chat.ID, "Wallet connected! ✅ Use /task to get your first task.")
}

func (b *Bot) handleTask(ctx context.Context, message *tgbotapi.Message, sess *session.Session) {
	user, err := b.storage.GetUser(ctx, message.From.ID)
	if errors.Is(err, storage.ErrUserNotFound) {
		b.sendMessage(message.Chat.ID, "You need to connect a wallet first. Use /start.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to load user",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, something went wrong. Please try again.")
		return
	}

	now := time.Now()
	if !tasks.CanRequest(user, now, b.cooldown) {
		remaining := user.LastTaskAt.Add(b.cooldown).Sub(now).Round(time.Minute)
		b.sendMessage(message.Chat.ID, fmt.Sprintf("You can request one task every %s. Try again in %s.", b.cooldown, remaining))
		return
	}

	task, err := b.picker.Assign(ctx, user, now)
	if err != nil {
		b.logger.Error("Failed to assign task",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't assign a task. Please try again.")
		return
	}
	if task == nil {
		b.sendMessage(message.Chat.ID, "No tasks are available right now. Please check back later.")
		return
	}

	sess.ActiveTaskID = task.ID
	b.sendMessage(message.Chat.ID, taskPrompt(task))
}

func (b *Bot) handlePhoto(ctx context.Context, message *tgbotapi.Message, sess *session.Session) {
	task, ok := b.activeTask(ctx, message, sess)
	if !ok {
		return
	}

	// Telegram orders photo sizes smallest first.
	photo := message.Photo[len(message.Photo)-1]
	data, err := b.downloadFile(photo.FileID)
	if err != nil {
		b.logger.Error("Failed to download photo",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't download your photo. Please try again.")
		return
	}

	sub, err := b.processor.ProcessImage(ctx, message.From.ID, task, data)
	b.finishSubmission(message, sess, task, sub, err)
}

func (b *Bot) handleVoice(ctx context.Context, message *tgbotapi.Message, sess *session.Session) {
	task, ok := b.activeTask(ctx, message, sess)
	if !ok {
		return
	}

	data, err := b.downloadFile(message.Voice.FileID)
	if err != nil {
		b.logger.Error("Failed to download voice message",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't download your voice message. Please try again.")
		return
	}

	sub, err := b.processor.ProcessAudio(ctx, message.From.ID, task, data)
	b.finishSubmission(message, sess, task, sub, err)
}

// activeTask resolves the session's active task, replying to the user
// when there is none or it cannot be loaded.
func (b *Bot) activeTask(ctx context.Context, message *tgbotapi.Message, sess *session.Session) (*models.Task, bool) {
	if sess.ActiveTaskID == 0 {
		b.sendMessage(message.Chat.ID, "Request a task first with /task.")
		return nil, false
	}

	task, err := b.storage.GetTask(ctx, sess.ActiveTaskID)
	if err != nil {
		b.logger.Error("Failed to load active task",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID),
			zap.Int64("task_id", sess.ActiveTaskID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, something went wrong. Please try again.")
		return nil, false
	}

	return task, true
}

// finishSubmission maps processor outcomes onto replies. Only a recorded
// submission clears the active task; every rejection keeps it assigned
// so the user may retry.
func (b *Bot) finishSubmission(message *tgbotapi.Message, sess *session.Session, task *models.Task, sub *models.Submission, err error) {
	if err == nil {
		sess.ActiveTaskID = 0
		b.logger.Info("Accepted submission",
			zap.String("submission_id", sub.ID),
			zap.Int64("user_id", message.From.ID),
			zap.Int64("task_id", task.ID))
		b.sendMessage(message.Chat.ID, "Submission received. Thank you! 🎉")
		return
	}

	switch {
	case errors.Is(err, submission.ErrImageTooSmall):
		b.sendErrorMessage(message.Chat.ID, "Your image must be at least 400x400 pixels. Please send a larger one.")
	case errors.Is(err, submission.ErrInvalidAudio):
		b.sendErrorMessage(message.Chat.ID, "That recording couldn't be accepted. Please try again.")
	case errors.Is(err, submission.ErrEmptyText):
		b.sendErrorMessage(message.Chat.ID, "Your answer can't be empty. Please send some text.")
	case errors.Is(err, submission.ErrWrongContent):
		b.sendErrorMessage(message.Chat.ID, wrongContentReply(task.Type))
	default:
		b.logger.Error("Failed to process submission",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID),
			zap.Int64("task_id", task.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your submission. Please try again.")
	}
}

func taskPrompt(task *models.Task) string {
	switch task.Type {
	case models.TaskAudio:
		return fmt.Sprintf("🎤 Audio task:\n%s\n\nReply with a voice message.", task.Prompt)
	case models.TaskImage:
		return fmt.Sprintf("📷 Image task:\n%s\n\nReply with a photo of at least 400x400 pixels.", task.Prompt)
	default:
		return fmt.Sprintf("✍️ Text task:\n%s\n\nReply with a text message.", task.Prompt)
	}
}

func wrongContentReply(taskType models.TaskType) string {
	switch taskType {
	case models.TaskAudio:
		return "This task expects a voice message."
	case models.TaskImage:
		return "This task expects a photo."
	default:
		return "This task expects a text answer."
	}
}

func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("error resolving file url: %w", err)
	}
	return b.fetch(url)
}

func fetchURL(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
