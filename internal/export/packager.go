// Package export serializes a website record into a deployable bundle and
// packages it as a ZIP.
package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/storage"
	"sitebuilder/internal/template"
)

// BuilderName identifies this builder in the generated config descriptor.
const BuilderName = "Telegram Website Builder"

// assetPrefix is the bundle sub-path for record assets.
const assetPrefix = "assets/"

// File is one entry of a bundle.
type File struct {
	Name    string
	Content []byte
}

// Bundle is an ordered file-name-to-content mapping.
type Bundle []File

// Get returns the content of the named file and whether it exists.
func (b Bundle) Get(name string) ([]byte, bool) {
	for _, f := range b {
		if f.Name == name {
			return f.Content, true
		}
	}
	return nil, false
}

// Packager builds deployable bundles from website records.
type Packager struct {
	catalog *template.Catalog
	store   storage.Store
	log     logrus.FieldLogger

	now func() time.Time
}

// NewPackager creates a packager backed by the given catalog and store.
func NewPackager(catalog *template.Catalog, store storage.Store, logger logrus.FieldLogger) *Packager {
	return &Packager{
		catalog: catalog,
		store:   store,
		log:     logger.WithField("component", "export"),
		now:     time.Now,
	}
}

// Build produces the bundle for a record: the entry-point document with
// placeholders substituted, the stylesheet, the script, the config
// descriptor, a README and one entry per asset. It is pure, the record is
// not mutated.
func (p *Packager) Build(w domain.Website) Bundle {
	resolved := p.catalog.ResolveContent(w)

	// A record with neither content nor a template still exports using the
	// default template, like every other unknown-template reference.
	content := resolved.Content
	if content == "" {
		content = p.catalog.Resolve(resolved.TemplateID).Content
	}
	styles := resolved.Styles
	if styles == "" {
		styles = p.catalog.Resolve(resolved.TemplateID).Styles
	}
	scripts := resolved.Scripts
	if scripts == "" {
		scripts = p.catalog.Resolve(resolved.TemplateID).Scripts
	}

	now := p.now()

	bundle := Bundle{
		{Name: "index.html", Content: []byte(p.substitute(content, w, now))},
		{Name: "style.css", Content: []byte(styles)},
		{Name: "script.js", Content: []byte(scripts)},
		{Name: "config.json", Content: p.configDescriptor(w, now)},
		{Name: "README.txt", Content: []byte(fmt.Sprintf(
			"Website: %s\nDibuat dengan Website Builder\nTanggal: %s\n",
			w.Name, now.Format("02 Jan 2006 15:04:05")))},
	}
	for _, a := range w.Assets {
		bundle = append(bundle, File{Name: assetPrefix + a.Name, Content: a.Content})
	}
	return bundle
}

// substitute performs literal placeholder replacement. Unknown tokens are
// left verbatim rather than treated as an error.
func (p *Packager) substitute(content string, w domain.Website, now time.Time) string {
	r := strings.NewReplacer(
		"{{website_name}}", w.Name,
		"{{year}}", strconv.Itoa(now.Year()),
		"{{url}}", w.Slug(),
		"{{description}}", w.Description,
	)
	return r.Replace(content)
}

func (p *Packager) configDescriptor(w domain.Website, now time.Time) []byte {
	desc := map[string]string{
		"name":      w.Name,
		"generated": now.Format("2006-01-02 15:04:05"),
		"builder":   BuilderName,
	}
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return []byte("{}")
	}
	return data
}

// Export builds the bundle for the record with the given id and transitions
// its status to ready_to_deploy. The returned record reflects the
// transition.
func (p *Packager) Export(ctx context.Context, id string) (Bundle, domain.Website, error) {
	w, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, domain.Website{}, err
	}

	bundle := p.Build(w)

	saved, _, err := p.store.Save(ctx, domain.Website{ID: w.ID, Status: domain.StatusReadyToDeploy})
	if err != nil {
		p.log.WithError(err).WithField("id", w.ID).Warn("Exported bundle but could not update status")
		saved = w
	}

	p.log.WithFields(logrus.Fields{"id": w.ID, "files": len(bundle)}).Info("Bundle exported")
	return bundle, saved, nil
}

// ZipName returns the download file name for a record's bundle.
func ZipName(w domain.Website) string {
	return w.Slug() + ".zip"
}

// WriteZip writes the bundle as a ZIP archive.
func WriteZip(dst io.Writer, bundle Bundle) error {
	zw := zip.NewWriter(dst)
	for _, f := range bundle {
		fw, err := zw.Create(f.Name)
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Content); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}
