package bot

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"sitebuilder/internal/backup"
	"sitebuilder/internal/storage"
)

// Handler holds dependencies for the Telegram control-bot handlers. The bot
// is an optional second surface over the same store the HTTP API uses.
type Handler struct {
	bot    *tgbot.Bot
	store  storage.Store
	backup *backup.Client
	log    logrus.FieldLogger
}

// NewHandler creates a new bot handler instance.
func NewHandler(token string, store storage.Store, backupClient *backup.Client, logger logrus.FieldLogger, opts ...tgbot.Option) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	b, err := tgbot.New(token, opts...)
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	h := &Handler{
		bot:    b,
		store:  store,
		backup: backupClient,
		log:    log,
	}
	h.registerHandlers()

	log.Info("Telegram bot handler initialized")
	return h, nil
}

func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/list", tgbot.MatchTypeExact, h.listHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/sync", tgbot.MatchTypeExact, h.syncHandler)
}

// Start begins polling for updates. Blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.log.WithFields(logrus.Fields{
		"user_id": update.Message.From.ID,
		"command": "/start",
	})
	log.Info("Received /start command")

	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "Website Builder bot. /list shows your websites, /sync pushes them all to this chat as backups.",
	})
	if err != nil {
		log.WithError(err).Error("Failed to send welcome message")
	}
}

func (h *Handler) listHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.log.WithField("command", "/list")

	sites := h.store.GetAll(ctx)
	if len(sites) == 0 {
		_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "No websites yet.",
		})
		if err != nil {
			log.WithError(err).Error("Failed to send empty-list message")
		}
		return
	}

	var sb strings.Builder
	for i, w := range sites {
		fmt.Fprintf(&sb, "%d. %s (%s) - %s\n", i+1, w.Name, w.Type, w.Status)
	}
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   sb.String(),
	})
	if err != nil {
		log.WithError(err).Error("Failed to send website list")
	}
}

func (h *Handler) syncHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.log.WithField("command", "/sync")
	log.Info("Received /sync command")

	succeeded, total := h.backup.PushAll(ctx)
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   fmt.Sprintf("Berhasil sync %d dari %d website ke Telegram", succeeded, total),
	})
	if err != nil {
		log.WithError(err).Error("Failed to send sync summary")
	}
}
