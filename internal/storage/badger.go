package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"sitebuilder/internal/domain"
)

// Fixed key slots. Website and template entries get one key per record;
// the configuration singleton is spread over the config: slots.
const (
	websitePrefix  = "website:"
	templatePrefix = "template:"

	keyBotToken    = "config:bot_token"
	keyChatID      = "config:chat_id"
	keyStorageMode = "config:storage_mode"
	keyLastSync    = "config:last_sync"
)

// BadgerStore implements the Store interface using BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	log logrus.FieldLogger

	now func() time.Time
}

// NewBadgerStore opens the database at the given path.
func NewBadgerStore(dbPath string, logger logrus.FieldLogger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}

	return &BadgerStore{
		db:  db,
		log: logger.WithField("component", "store"),
		now: time.Now,
	}, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	s.log.Info("Closing BadgerDB")
	if err := s.db.Close(); err != nil {
		s.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	return nil
}

func websiteKey(id string) []byte {
	return []byte(websitePrefix + id)
}

func templateKey(id string) []byte {
	return []byte(templatePrefix + id)
}

// GetAll returns every website record, oldest first. Entries that fail to
// deserialize are logged and withheld; the caller never sees an error.
func (s *BadgerStore) GetAll(ctx context.Context) []domain.Website {
	var sites []domain.Website

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(websitePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var w domain.Website
				if err := json.Unmarshal(val, &w); err != nil {
					s.log.WithError(err).WithField("key", string(item.Key())).
						Error("Skipping website record that failed to deserialize")
					return nil
				}
				sites = append(sites, w)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to read website records")
		return nil
	}

	sort.Slice(sites, func(i, j int) bool {
		if sites[i].CreatedAt.Equal(sites[j].CreatedAt) {
			return sites[i].ID < sites[j].ID
		}
		return sites[i].CreatedAt.Before(sites[j].CreatedAt)
	})
	return sites
}

// Get returns a single record by id.
func (s *BadgerStore) Get(ctx context.Context, id string) (domain.Website, error) {
	var w domain.Website
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(websiteKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &w)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Website{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Website{}, fmt.Errorf("failed to get website %s: %w", id, err)
	}
	return w, nil
}

// Save creates or updates a record inside a single transaction, so no
// partial write is ever observable. The returned flag reports whether the
// caller should schedule a backup push.
func (s *BadgerStore) Save(ctx context.Context, w domain.Website) (domain.Website, bool, error) {
	log := s.log.WithFields(logrus.Fields{"id": w.ID, "name": w.Name})

	var saved domain.Website
	err := s.db.Update(func(txn *badger.Txn) error {
		now := s.now().UTC()

		if w.ID == "" {
			w.ID = s.newID(txn)
			if w.Status == "" {
				w.Status = domain.StatusDraft
			}
			if w.URL == "" {
				w.URL = domain.Slugify(w.Name)
			}
			w.CreatedAt = now
			w.UpdatedAt = now
			saved = w
		} else {
			item, err := txn.Get(websiteKey(w.ID))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				// Caller-supplied id with no existing record: treat as
				// a create, keeping the id.
				if w.Status == "" {
					w.Status = domain.StatusDraft
				}
				if w.URL == "" {
					w.URL = domain.Slugify(w.Name)
				}
				w.CreatedAt = now
				w.UpdatedAt = now
				saved = w
			case err != nil:
				return err
			default:
				var existing domain.Website
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &existing)
				}); err != nil {
					return err
				}
				saved = mergeWebsite(existing, w)
				saved.UpdatedAt = now
			}
		}

		data, err := json.Marshal(saved)
		if err != nil {
			return fmt.Errorf("failed to marshal website: %w", err)
		}
		return txn.SetEntry(badger.NewEntry(websiteKey(saved.ID), data))
	})
	if err != nil {
		log.WithError(err).Error("Failed to save website")
		return domain.Website{}, false, fmt.Errorf("failed to save website: %w", err)
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not load settings after save, assuming sync disabled")
		settings = domain.Settings{}
	}

	log.WithField("id", saved.ID).Info("Website saved")
	return saved, settings.SyncEnabled(), nil
}

// newID produces a time-based token like the original builder, bumping the
// millisecond value until the key is free.
func (s *BadgerStore) newID(txn *badger.Txn) string {
	ms := s.now().UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		_, err := txn.Get(websiteKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return id
		}
		ms++
	}
}

// mergeWebsite overlays the provided (non-zero) fields of in over base.
// ID and CreatedAt are immutable.
func mergeWebsite(base, in domain.Website) domain.Website {
	out := base
	if in.Name != "" {
		out.Name = in.Name
	}
	if in.Type != "" {
		out.Type = in.Type
	}
	if in.URL != "" {
		out.URL = in.URL
	}
	if in.TemplateID != "" {
		out.TemplateID = in.TemplateID
	}
	if in.Content != "" {
		out.Content = in.Content
	}
	if in.Styles != "" {
		out.Styles = in.Styles
	}
	if in.Scripts != "" {
		out.Scripts = in.Scripts
	}
	if in.Description != "" {
		out.Description = in.Description
	}
	if in.Status != "" {
		out.Status = in.Status
	}
	if in.TelegramMessageID != 0 {
		out.TelegramMessageID = in.TelegramMessageID
	}
	if in.Assets != nil {
		out.Assets = in.Assets
	}
	return out
}

// Delete removes a record and reports whether it existed.
func (s *BadgerStore) Delete(ctx context.Context, id string) (bool, error) {
	log := s.log.WithField("id", id)

	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(websiteKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return txn.Delete(websiteKey(id))
	})
	if err != nil {
		log.WithError(err).Error("Failed to delete website")
		return false, fmt.Errorf("failed to delete website %s: %w", id, err)
	}

	if existed {
		log.Info("Website deleted")
	}
	return existed, nil
}

// SetTelegramMessageID stores the backup message id on the record. UpdatedAt
// is left alone, a backup push is not an edit.
func (s *BadgerStore) SetTelegramMessageID(ctx context.Context, id string, messageID int) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(websiteKey(id))
		if err != nil {
			return err
		}
		var w domain.Website
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &w)
		}); err != nil {
			return err
		}
		w.TelegramMessageID = messageID
		data, err := json.Marshal(w)
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(websiteKey(id), data))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to set message id on website %s: %w", id, err)
	}
	return nil
}

// Settings loads the configuration singleton. Missing slots fall back to
// zero values with the storage mode defaulting to local.
func (s *BadgerStore) Settings(ctx context.Context) (domain.Settings, error) {
	out := domain.Settings{StorageMode: domain.ModeLocal}

	err := s.db.View(func(txn *badger.Txn) error {
		read := func(key string, into *string) error {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				*into = string(val)
				return nil
			})
		}

		if err := read(keyBotToken, &out.BotToken); err != nil {
			return err
		}
		if err := read(keyChatID, &out.ChatID); err != nil {
			return err
		}
		var mode string
		if err := read(keyStorageMode, &mode); err != nil {
			return err
		}
		if mode != "" {
			out.StorageMode = mode
		}
		var lastSync string
		if err := read(keyLastSync, &lastSync); err != nil {
			return err
		}
		if lastSync != "" {
			t, err := time.Parse(time.RFC3339Nano, lastSync)
			if err != nil {
				s.log.WithError(err).Warn("Ignoring unparseable last-sync timestamp")
			} else {
				out.LastSync = t
			}
		}
		return nil
	})
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return out, nil
}

// UpdateSettings persists bot token, chat id and storage mode in one
// transaction.
func (s *BadgerStore) UpdateSettings(ctx context.Context, in domain.Settings) error {
	mode := in.StorageMode
	if mode == "" {
		mode = domain.ModeLocal
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyBotToken), []byte(in.BotToken)); err != nil {
			return err
		}
		if err := txn.Set([]byte(keyChatID), []byte(in.ChatID)); err != nil {
			return err
		}
		return txn.Set([]byte(keyStorageMode), []byte(mode))
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to update settings")
		return fmt.Errorf("failed to update settings: %w", err)
	}
	s.log.WithField("storage_mode", mode).Info("Settings updated")
	return nil
}

// TouchLastSync advances the last-sync timestamp to now.
func (s *BadgerStore) TouchLastSync(ctx context.Context) error {
	now := s.now().UTC().Format(time.RFC3339Nano)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyLastSync), []byte(now))
	})
	if err != nil {
		return fmt.Errorf("failed to update last sync: %w", err)
	}
	return nil
}

// Templates returns all user-stored templates. Like GetAll, corrupt entries
// are skipped rather than failing the read.
func (s *BadgerStore) Templates(ctx context.Context) []domain.Template {
	var templates []domain.Template

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(templatePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var t domain.Template
				if err := json.Unmarshal(val, &t); err != nil {
					s.log.WithError(err).WithField("key", string(item.Key())).
						Error("Skipping template that failed to deserialize")
					return nil
				}
				templates = append(templates, t)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to read templates")
		return nil
	}

	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	return templates
}

// SaveTemplate stores or replaces a custom template.
func (s *BadgerStore) SaveTemplate(ctx context.Context, t domain.Template) error {
	if t.ID == "" {
		return errors.New("template id is required")
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(templateKey(t.ID), data))
	})
	if err != nil {
		s.log.WithError(err).WithField("template_id", t.ID).Error("Failed to save template")
		return fmt.Errorf("failed to save template %s: %w", t.ID, err)
	}
	return nil
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Infof(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
