package backup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/storage"
)

const testToken = "123:test-token"

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func newTestStore(t *testing.T) *storage.BadgerStore {
	t.Helper()
	store, err := storage.NewBadgerStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

// fakeBotAPI is a minimal Telegram Bot API double. failSendCalls holds the
// 1-based sendMessage call numbers that should answer with an API error.
type fakeBotAPI struct {
	t             *testing.T
	sendCalls     int
	deleteCalls   int
	failSendCalls map[int]bool
}

func (f *fakeBotAPI) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/bot"+testToken+"/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		f.sendCalls++
		if f.failSendCalls[f.sendCalls] {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":{"message_id":42,"date":1,"chat":{"id":12345,"type":"private"}}}`))
	})
	mux.HandleFunc("/bot"+testToken+"/getMe", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Builder","username":"builder_bot"}}`))
	})
	mux.HandleFunc("/bot"+testToken+"/deleteMessage", func(w http.ResponseWriter, r *http.Request) {
		f.deleteCalls++
		w.Write([]byte(`{"ok":true,"result":true}`))
	})
	srv := httptest.NewServer(mux)
	f.t.Cleanup(srv.Close)
	return srv
}

func setupClient(t *testing.T, api *fakeBotAPI) (*Client, *storage.BadgerStore) {
	t.Helper()
	store := newTestStore(t)
	require.NoError(t, store.UpdateSettings(context.Background(), domain.Settings{
		BotToken:    testToken,
		ChatID:      "12345",
		StorageMode: domain.ModeTelegram,
	}))
	client := NewClient(store, testLogger(), tgbot.WithServerURL(api.server().URL))
	return client, store
}

func TestClientPushSuccess(t *testing.T) {
	api := &fakeBotAPI{t: t}
	client, store := setupClient(t, api)
	ctx := context.Background()

	saved, _, err := store.Save(ctx, domain.Website{Name: "Toko A", Type: "toko-online"})
	require.NoError(t, err)

	require.True(t, client.Push(ctx, saved))
	assert.Equal(t, 1, api.sendCalls)

	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, got.TelegramMessageID)

	settings, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.False(t, settings.LastSync.IsZero(), "Successful push must advance last sync")
}

func TestClientPushFailureLeavesRecordUnchanged(t *testing.T) {
	api := &fakeBotAPI{t: t, failSendCalls: map[int]bool{1: true}}
	client, store := setupClient(t, api)
	ctx := context.Background()

	saved, _, err := store.Save(ctx, domain.Website{Name: "Toko A", Type: "toko-online"})
	require.NoError(t, err)

	assert.False(t, client.Push(ctx, saved))
	assert.Equal(t, 1, api.sendCalls, "No automatic retry")

	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TelegramMessageID)

	settings, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.LastSync.IsZero(), "Failed push must not advance last sync")
}

func TestClientPushWithoutCredentials(t *testing.T) {
	api := &fakeBotAPI{t: t}
	store := newTestStore(t)
	client := NewClient(store, testLogger(), tgbot.WithServerURL(api.server().URL))

	assert.False(t, client.Push(context.Background(), domain.Website{ID: "1", Name: "X"}))
	assert.Zero(t, api.sendCalls)
}

func TestClientPushAllAttemptsEveryRecord(t *testing.T) {
	// Second of three pushes fails; the remainder must still be attempted.
	api := &fakeBotAPI{t: t, failSendCalls: map[int]bool{2: true}}
	client, store := setupClient(t, api)
	ctx := context.Background()

	for _, name := range []string{"One", "Two", "Three"} {
		_, _, err := store.Save(ctx, domain.Website{Name: name, Type: "blog"})
		require.NoError(t, err)
	}

	succeeded, total := client.PushAll(ctx)
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, api.sendCalls)
}

func TestClientVerifyCredentials(t *testing.T) {
	api := &fakeBotAPI{t: t}
	client, _ := setupClient(t, api)

	username, ok := client.VerifyCredentials(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "builder_bot", username)
}

func TestClientVerifyCredentialsWithoutToken(t *testing.T) {
	store := newTestStore(t)
	client := NewClient(store, testLogger())

	_, ok := client.VerifyCredentials(context.Background())
	assert.False(t, ok)
}

func TestClientDelete(t *testing.T) {
	api := &fakeBotAPI{t: t}
	client, _ := setupClient(t, api)
	ctx := context.Background()

	// Never-pushed records are a no-op.
	assert.False(t, client.Delete(ctx, domain.Website{ID: "1"}))
	assert.Zero(t, api.deleteCalls)

	assert.True(t, client.Delete(ctx, domain.Website{ID: "1", TelegramMessageID: 42}))
	assert.Equal(t, 1, api.deleteCalls)
}

func TestFormatSnapshot(t *testing.T) {
	w := domain.Website{
		ID:      "1700000000000",
		Name:    "Toko <A> & B",
		Type:    "toko-online",
		URL:     "toko-a",
		Content: strings.Repeat("x", 5000),
	}
	snap := FormatSnapshot(w)

	assert.Contains(t, snap, "WEBSITE BACKUP")
	assert.Contains(t, snap, "Toko &lt;A&gt; &amp; B")
	assert.Contains(t, snap, "#Backup #WebsiteBuilder")
	assert.NotContains(t, snap, "<A>", "Record fields must be HTML-escaped")
	assert.Less(t, len(snap), 4096, "Snapshot must stay under the message-size limit")

	// Records without a url or template show the fallback labels.
	snap = FormatSnapshot(domain.Website{Name: "Draft"})
	assert.Contains(t, snap, "Belum deploy")
	assert.Contains(t, snap, "Custom")
}
