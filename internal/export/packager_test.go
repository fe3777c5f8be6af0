package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/storage"
	"sitebuilder/internal/template"
)

func newTestPackager(t *testing.T) (*Packager, *storage.BadgerStore) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)

	store, err := storage.NewBadgerStore(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return NewPackager(template.NewCatalog(), store, log), store
}

func TestPackagerBuildSubstitutesPlaceholders(t *testing.T) {
	p, _ := newTestPackager(t)
	p.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	bundle := p.Build(domain.Website{
		Name:        "Toko A",
		Type:        "toko-online",
		TemplateID:  "gas-industri-1",
		Description: "Toko serba ada",
	})

	page, ok := bundle.Get("index.html")
	require.True(t, ok)
	assert.NotContains(t, string(page), "{{website_name}}")
	assert.NotContains(t, string(page), "{{year}}")
	assert.Contains(t, string(page), "Toko A")
	assert.Contains(t, string(page), strconv.Itoa(2024))
	assert.Contains(t, string(page), "Toko serba ada")

	for _, name := range []string{"style.css", "script.js", "config.json", "README.txt"} {
		_, ok := bundle.Get(name)
		assert.True(t, ok, "Bundle must contain %s", name)
	}

	cfgRaw, _ := bundle.Get("config.json")
	var cfg map[string]string
	require.NoError(t, json.Unmarshal(cfgRaw, &cfg))
	assert.Equal(t, "Toko A", cfg["name"])
	assert.Equal(t, BuilderName, cfg["builder"])
	assert.Equal(t, "2024-06-01 12:00:00", cfg["generated"])
}

func TestPackagerBuildLeavesUnknownTokensVerbatim(t *testing.T) {
	p, _ := newTestPackager(t)

	bundle := p.Build(domain.Website{
		Name:    "Toko A",
		Content: "<h1>{{website_name}}</h1><p>{{unknown_token}}</p>",
	})

	page, _ := bundle.Get("index.html")
	assert.Contains(t, string(page), "Toko A")
	assert.Contains(t, string(page), "{{unknown_token}}")
}

func TestPackagerBuildFallsBackToDefaultTemplate(t *testing.T) {
	p, _ := newTestPackager(t)

	// No content and no template still yields a usable page.
	bundle := p.Build(domain.Website{Name: "Bare"})
	page, ok := bundle.Get("index.html")
	require.True(t, ok)
	assert.Contains(t, string(page), "Bare")
	assert.NotEmpty(t, page)
}

func TestPackagerBuildIncludesAssets(t *testing.T) {
	p, _ := newTestPackager(t)

	bundle := p.Build(domain.Website{
		Name: "With Assets",
		Assets: []domain.Asset{
			{Name: "logo.svg", Content: []byte("<svg/>")},
			{Name: "notes.txt", Content: []byte("hello")},
		},
	})

	logo, ok := bundle.Get("assets/logo.svg")
	require.True(t, ok)
	assert.Equal(t, []byte("<svg/>"), logo)
	_, ok = bundle.Get("assets/notes.txt")
	assert.True(t, ok)
}

func TestPackagerExportTransitionsStatus(t *testing.T) {
	p, store := newTestPackager(t)
	ctx := context.Background()

	saved, _, err := store.Save(ctx, domain.Website{Name: "Toko A", Type: "toko-online"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusDraft, saved.Status)

	bundle, exported, err := p.Export(ctx, saved.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, bundle)
	assert.Equal(t, domain.StatusReadyToDeploy, exported.Status)

	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReadyToDeploy, got.Status)

	_, _, err = p.Export(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWriteZip(t *testing.T) {
	bundle := Bundle{
		{Name: "index.html", Content: []byte("<html></html>")},
		{Name: "assets/logo.svg", Content: []byte("<svg/>")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteZip(&buf, bundle))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "index.html", zr.File[0].Name)
	assert.Equal(t, "<html></html>", string(data))
}

func TestZipName(t *testing.T) {
	assert.Equal(t, "toko-a.zip", ZipName(domain.Website{Name: "Toko A"}))
	assert.Equal(t, "custom.zip", ZipName(domain.Website{Name: "Toko A", URL: "custom"}))
}
