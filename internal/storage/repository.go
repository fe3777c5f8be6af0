package storage

import (
	"context"

	"sitebuilder/internal/domain"
)

// Store defines the interface for website persistence. This allows swapping
// the storage implementation (e.g. BadgerDB, SQL) without changing the
// application logic that uses it.
type Store interface {
	// GetAll returns every stored website record. It never fails: entries
	// that cannot be deserialized are logged and withheld, and a storage
	// fault yields an empty slice.
	GetAll(ctx context.Context) []domain.Website

	// Get returns the record with the given id, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (domain.Website, error)

	// Save creates or updates a record. Provided (non-zero) fields are
	// merged over an existing record with the same ID and UpdatedAt is
	// refreshed; a record without an ID gets a fresh unique one and both
	// timestamps set. The returned flag reports whether a backup push is
	// pending for the saved record (storage mode is non-local and
	// credentials are configured); the caller decides whether to push.
	Save(ctx context.Context, w domain.Website) (domain.Website, bool, error)

	// Delete removes the record with the given id and reports whether it
	// existed. Deleting an unknown id is a no-op, not an error.
	Delete(ctx context.Context, id string) (bool, error)

	// SetTelegramMessageID records the remote backup message id for a
	// website after a successful push. It does not touch UpdatedAt.
	SetTelegramMessageID(ctx context.Context, id string, messageID int) error

	// Settings loads the configuration singleton from its fixed slots.
	Settings(ctx context.Context) (domain.Settings, error)

	// UpdateSettings persists bot token, chat id and storage mode.
	// LastSync is managed separately via TouchLastSync.
	UpdateSettings(ctx context.Context, s domain.Settings) error

	// TouchLastSync advances the last-sync timestamp.
	TouchLastSync(ctx context.Context) error

	// Templates returns all user-stored templates.
	Templates(ctx context.Context) []domain.Template

	// SaveTemplate stores or replaces a custom template.
	SaveTemplate(ctx context.Context, t domain.Template) error

	// Close gracefully shuts down the store.
	Close() error
}
