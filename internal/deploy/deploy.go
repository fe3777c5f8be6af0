// Package deploy publishes a website bundle into a public directory: the
// bundle is staged as a ZIP, extracted into a per-site folder named by the
// sanitized site slug, and served statically from there.
package deploy

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/export"
)

// Request is the deploy payload: the site name plus the rendered page parts.
type Request struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	CSS     string `json:"css"`
	JS      string `json:"js"`
}

// Response mirrors the original endpoint's contract.
type Response struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Message     string `json:"message"`
}

// Deployer writes bundles under a public directory and reports the URL
// where the deployed site is reachable.
type Deployer struct {
	publicDir string
	baseURL   string
	log       logrus.FieldLogger

	now func() time.Time
}

// NewDeployer creates a deployer rooted at publicDir. baseURL is the
// externally visible prefix under which publicDir is served as /websites/.
func NewDeployer(publicDir, baseURL string, logger logrus.FieldLogger) *Deployer {
	return &Deployer{
		publicDir: publicDir,
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       logger.WithField("component", "deploy"),
		now:       time.Now,
	}
}

// Deploy assembles the ZIP for the request, extracts it into the public
// folder for the site's slug and returns the public URL of index.html.
// Failures are reported in the response, never as a panic.
func (d *Deployer) Deploy(req Request) Response {
	name := req.Name
	if name == "" {
		name = "MyWebsite"
	}
	slug := domain.Slugify(name)
	log := d.log.WithFields(logrus.Fields{"name": name, "slug": slug})

	zipPath, err := d.stageZip(name, req)
	if err != nil {
		log.WithError(err).Error("Failed to build deploy archive")
		return Response{Success: false, Message: "Gagal membuat file ZIP"}
	}
	defer os.Remove(zipPath)

	siteDir := filepath.Join(d.publicDir, slug)
	if err := extract(zipPath, siteDir); err != nil {
		log.WithError(err).Error("Failed to extract deploy archive")
		return Response{Success: false, Message: "Gagal mengekstrak website"}
	}

	url := fmt.Sprintf("%s/websites/%s/index.html", d.baseURL, slug)
	log.WithField("url", url).Info("Website deployed")
	return Response{Success: true, DownloadURL: url, Message: "Website berhasil dibuat!"}
}

// stageZip writes the request's files into a uniquely named temp archive.
func (d *Deployer) stageZip(name string, req Request) (string, error) {
	path := filepath.Join(os.TempDir(), "website_"+uuid.NewString()+".zip")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create temp archive: %w", err)
	}
	defer f.Close()

	desc, err := json.MarshalIndent(map[string]string{
		"name":      name,
		"generated": d.now().Format("2006-01-02 15:04:05"),
		"builder":   export.BuilderName,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	bundle := export.Bundle{
		{Name: "index.html", Content: []byte(wrapHTML(name, req.Content, req.CSS, req.JS))},
		{Name: "style.css", Content: []byte(req.CSS)},
		{Name: "script.js", Content: []byte(req.JS)},
		{Name: "config.json", Content: desc},
	}
	if err := export.WriteZip(f, bundle); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// wrapHTML produces the self-contained entry page with inlined styles and
// script, matching the shape the deploy endpoint has always produced.
func wrapHTML(name, content, css, js string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang='id'>
<head>
    <meta charset='UTF-8'>
    <meta name='viewport' content='width=device-width, initial-scale=1.0'>
    <title>%s</title>
    <style>%s</style>
</head>
<body>
    %s
    <script>%s</script>
</body>
</html>
`, name, css, content, js)
}

// extract unpacks the archive into dir, creating it as needed. Entry names
// outside dir are rejected.
func extract(zipPath, dir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create site directory: %w", err)
	}

	for _, f := range zr.File {
		target := filepath.Join(dir, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes target directory: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.Create(target)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	return nil
}
