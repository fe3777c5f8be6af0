// Package backup pushes human-readable snapshots of website records to a
// Telegram chat. The chat is a one-way audit/backup trail, not a queryable
// database: nothing is ever read back from it into the store.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/storage"
)

// dumpLimit caps the serialized record dump embedded in a snapshot so the
// message stays under Telegram's message-size limit.
const dumpLimit = 1000

// Client sends backup snapshots through the Telegram Bot API. Credentials
// are read from the store's settings on every call, so a settings update
// takes effect without restarting.
type Client struct {
	store storage.Store
	log   logrus.FieldLogger
	opts  []tgbot.Option

	mu       sync.Mutex
	botToken string
	bot      *tgbot.Bot
}

// NewClient creates a backup client. Extra bot options are passed through to
// the underlying Telegram client (tests use this to point at a mock server).
func NewClient(store storage.Store, logger logrus.FieldLogger, opts ...tgbot.Option) *Client {
	return &Client{
		store: store,
		log:   logger.WithField("component", "backup"),
		opts:  opts,
	}
}

// botFor returns a Telegram client for the given token, reusing the cached
// one while the token is unchanged.
func (c *Client) botFor(token string) (*tgbot.Bot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bot != nil && c.botToken == token {
		return c.bot, nil
	}

	opts := append([]tgbot.Option{tgbot.WithSkipGetMe()}, c.opts...)
	b, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	c.bot = b
	c.botToken = token
	return b, nil
}

// Push sends a snapshot of the record to the configured chat. On success the
// returned message id is stored on the record and the last-sync timestamp is
// advanced. On any failure the record is left unchanged and false is
// returned; there is no automatic retry.
func (c *Client) Push(ctx context.Context, w domain.Website) bool {
	log := c.log.WithFields(logrus.Fields{"id": w.ID, "name": w.Name})

	settings, err := c.store.Settings(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load settings for backup push")
		return false
	}
	if settings.BotToken == "" || settings.ChatID == "" {
		log.Warn("Backup push skipped, Telegram credentials not configured")
		return false
	}

	b, err := c.botFor(settings.BotToken)
	if err != nil {
		log.WithError(err).Error("Failed to initialize Telegram client")
		return false
	}

	msg, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    settings.ChatID,
		Text:      FormatSnapshot(w),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		log.WithError(err).Error("Backup push failed")
		return false
	}

	if err := c.store.SetTelegramMessageID(ctx, w.ID, msg.ID); err != nil {
		log.WithError(err).Warn("Pushed backup but could not record message id")
	}
	if err := c.store.TouchLastSync(ctx); err != nil {
		log.WithError(err).Warn("Pushed backup but could not advance last sync")
	}

	log.WithField("message_id", msg.ID).Info("Backup pushed to Telegram")
	return true
}

// PushAll pushes every stored record sequentially, one request in flight at
// a time to respect the API's rate limits. A failed push does not abort the
// remainder. Returns the number of successes and the total attempted.
func (c *Client) PushAll(ctx context.Context) (succeeded, total int) {
	sites := c.store.GetAll(ctx)
	for _, w := range sites {
		if c.Push(ctx, w) {
			succeeded++
		}
	}
	c.log.WithFields(logrus.Fields{
		"succeeded": succeeded,
		"total":     len(sites),
	}).Info("Bulk backup finished")
	return succeeded, len(sites)
}

// VerifyCredentials calls getMe with the configured token and returns the
// bot's username on success. Used to validate the configuration before
// enabling sync mode.
func (c *Client) VerifyCredentials(ctx context.Context) (string, bool) {
	settings, err := c.store.Settings(ctx)
	if err != nil {
		c.log.WithError(err).Error("Failed to load settings for credential check")
		return "", false
	}
	if settings.BotToken == "" {
		return "", false
	}

	b, err := c.botFor(settings.BotToken)
	if err != nil {
		c.log.WithError(err).Error("Failed to initialize Telegram client")
		return "", false
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		c.log.WithError(err).Error("Telegram credential check failed")
		return "", false
	}
	return me.Username, true
}

// Delete removes the record's backup message from the chat, best effort.
// Records that were never pushed are a no-op.
func (c *Client) Delete(ctx context.Context, w domain.Website) bool {
	if w.TelegramMessageID == 0 {
		return false
	}
	log := c.log.WithFields(logrus.Fields{"id": w.ID, "message_id": w.TelegramMessageID})

	settings, err := c.store.Settings(ctx)
	if err != nil || settings.BotToken == "" || settings.ChatID == "" {
		return false
	}
	b, err := c.botFor(settings.BotToken)
	if err != nil {
		return false
	}

	ok, err := b.DeleteMessage(ctx, &tgbot.DeleteMessageParams{
		ChatID:    settings.ChatID,
		MessageID: w.TelegramMessageID,
	})
	if err != nil {
		log.WithError(err).Warn("Could not delete backup message")
		return false
	}
	if ok {
		log.Info("Backup message deleted")
	}
	return ok
}

// FormatSnapshot renders the bounded HTML snapshot sent to the chat: a
// header with the key fields plus a truncated JSON dump of the record.
func FormatSnapshot(w domain.Website) string {
	dump, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		dump = []byte("{}")
	}
	truncated := []rune(string(dump))
	if len(truncated) > dumpLimit {
		truncated = truncated[:dumpLimit]
	}

	url := w.URL
	if url == "" {
		url = "Belum deploy"
	}
	tmpl := w.TemplateID
	if tmpl == "" {
		tmpl = "Custom"
	}

	return fmt.Sprintf(`<b>🌐 WEBSITE BACKUP</b>
────────────────────
<b>Nama:</b> %s
<b>URL:</b> %s
<b>Template:</b> %s
<b>Dibuat:</b> %s

<b>💾 DATA:</b>
<code>%s</code>
────────────────────
#Backup #WebsiteBuilder`,
		html.EscapeString(w.Name),
		html.EscapeString(url),
		html.EscapeString(tmpl),
		w.CreatedAt.Format("02 Jan 2006 15:04"),
		html.EscapeString(string(truncated)),
	)
}
