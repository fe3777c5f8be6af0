package domain

import (
	"errors"
	"strings"
	"time"
)

// Website status values. A record starts as a draft, becomes ready_to_deploy
// after a successful export, and deployed once the deploy endpoint has
// published it.
const (
	StatusDraft         = "draft"
	StatusReadyToDeploy = "ready_to_deploy"
	StatusDeployed      = "deployed"
)

// Asset is a named blob bundled with a website on export, placed under the
// assets/ prefix in the generated bundle.
type Asset struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

// Website represents a single website record built by the user.
type Website struct {
	// ID is assigned by the store on first save and is immutable afterwards.
	ID string `json:"id"`

	// Name is the display name, required on creation.
	Name string `json:"name"`

	// Type is a free-form category tag. Known values include gas-industri,
	// toko-online, portfolio, blog and company-profile, but the set is open.
	Type string `json:"type"`

	// URL is the deploy slug. Defaults to a slugified Name when empty.
	URL string `json:"url,omitempty"`

	// TemplateID references a template in the catalog. The referenced
	// content is resolved lazily on read, never copied into the record
	// unless the caller saves it back.
	TemplateID string `json:"template_id,omitempty"`

	Content string `json:"content,omitempty"`
	Styles  string `json:"styles,omitempty"`
	Scripts string `json:"scripts,omitempty"`

	Description string `json:"description,omitempty"`

	Status string `json:"status"`

	// CreatedAt and UpdatedAt are set by the store, never by the caller.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// TelegramMessageID is set only after a backup push has succeeded.
	TelegramMessageID int `json:"telegram_message_id,omitempty"`

	Assets []Asset `json:"assets,omitempty"`
}

// ErrNotFound is returned when a record id does not exist in the store.
var ErrNotFound = errors.New("website not found")

// Validate checks the fields that must be present before a record may be
// created. Validation failures never mutate state.
func (w Website) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return errors.New("website name is required")
	}
	if strings.TrimSpace(w.Type) == "" {
		return errors.New("website type is required")
	}
	return nil
}

// Slug returns the record's deploy slug, deriving it from the name when the
// url field was never set.
func (w Website) Slug() string {
	if w.URL != "" {
		return Slugify(w.URL)
	}
	return Slugify(w.Name)
}

// Slugify lower-cases the name, turns runs of whitespace into hyphens and
// strips everything outside [a-zA-Z0-9_-].
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), "-")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Storage modes for the settings singleton.
const (
	ModeLocal    = "local"
	ModeTelegram = "telegram"
)

// Settings is the browser-profile-wide configuration singleton: Telegram
// credentials, the storage mode and the last successful sync time.
type Settings struct {
	BotToken    string    `json:"bot_token"`
	ChatID      string    `json:"chat_id"`
	StorageMode string    `json:"storage_mode"`
	LastSync    time.Time `json:"last_sync,omitzero"`
}

// SyncEnabled reports whether saves should schedule a backup push: the mode
// is non-local and the credentials are present.
func (s Settings) SyncEnabled() bool {
	return s.StorageMode != "" && s.StorageMode != ModeLocal && s.BotToken != "" && s.ChatID != ""
}
