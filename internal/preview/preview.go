// Package preview renders a website's generated HTML in a headless browser
// and captures a screenshot. It is a best-effort convenience: a machine
// without a browser simply has no preview.
package preview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// RodRenderer implements preview rendering using the rod library.
type RodRenderer struct {
	log logrus.FieldLogger
}

// NewRodRenderer creates a new renderer instance.
func NewRodRenderer(logger logrus.FieldLogger) *RodRenderer {
	return &RodRenderer{
		log: logger.WithField("component", "preview"),
	}
}

// Render loads the given HTML into a fresh headless browser page and
// returns a PNG screenshot. A browser is launched per call; rendering is
// rare enough that a persistent instance is not worth its lifecycle.
func (r *RodRenderer) Render(ctx context.Context, html string) (png []byte, err error) {
	log := r.log

	path, exists := launcher.LookPath()
	if !exists {
		log.Error("Cannot find browser executable for rod")
		return nil, errors.New("rod browser dependency not found")
	}
	u := launcher.New().Bin(path).MustLaunch()
	browser := rod.New().ControlURL(u)
	if err = browser.Connect(); err != nil {
		log.WithError(err).Error("Failed to connect to rod browser")
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Error closing rod browser instance")
			if err == nil {
				err = fmt.Errorf("error closing browser: %w", closeErr)
			}
		}
	}()

	var page *rod.Page
	page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		log.WithError(err).Error("Failed to create rod page")
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Error closing rod page")
			if err == nil {
				err = fmt.Errorf("error closing page: %w", closeErr)
			}
		}
	}()

	pageCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	page = page.Context(pageCtx)

	if err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1280,
		Height:            800,
		DeviceScaleFactor: 1,
	}); err != nil {
		log.WithError(err).Error("Failed to set preview viewport")
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	if err = page.SetDocumentContent(html); err != nil {
		log.WithError(err).Error("Failed to load preview content")
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	if err = page.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			log.WithError(pageCtx.Err()).Warn("Preview rendering timed out")
			return nil, fmt.Errorf("preview rendering timed out: %w", pageCtx.Err())
		}
		log.WithError(err).Error("Failed to wait for page load")
		return nil, fmt.Errorf("failed waiting for page load: %w", err)
	}

	png, err = page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		log.WithError(err).Error("Failed to capture preview screenshot")
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	log.Debug("Preview rendered")
	return png, nil
}
