package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sitebuilder/internal/backup"
	"sitebuilder/internal/deploy"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/export"
	"sitebuilder/internal/storage"
	"sitebuilder/internal/template"
)

// PreviewRenderer renders a page's HTML into a PNG screenshot.
type PreviewRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	Store    storage.Store
	Catalog  *template.Catalog
	Backup   *backup.Client
	Packager *export.Packager
	Deployer *deploy.Deployer
	Renderer PreviewRenderer
	Log      logrus.FieldLogger
}

// RegisterRoutes wires the API onto the router.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/websites", s.listWebsites)
	api.POST("/websites", s.createWebsite)
	api.GET("/websites/:id", s.getWebsite)
	api.PUT("/websites/:id", s.updateWebsite)
	api.DELETE("/websites/:id", s.deleteWebsite)
	api.GET("/websites/:id/export", s.exportWebsite)
	api.POST("/websites/:id/sync", s.syncWebsite)
	api.GET("/websites/:id/preview", s.previewWebsite)

	api.POST("/sync", s.syncAll)
	api.GET("/templates", s.listTemplates)
	api.GET("/stats", s.stats)

	api.GET("/settings", s.getSettings)
	api.PUT("/settings", s.updateSettings)
	api.POST("/settings/verify", s.verifySettings)

	api.POST("/deploy", s.deployWebsite)
}

// websiteRequest is the mutable subset of a record accepted from clients.
// Timestamps, status transitions and the backup message id are owned by the
// server.
type websiteRequest struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	URL         string         `json:"url"`
	TemplateID  string         `json:"template_id"`
	Content     string         `json:"content"`
	Styles      string         `json:"styles"`
	Scripts     string         `json:"scripts"`
	Description string         `json:"description"`
	Assets      []domain.Asset `json:"assets"`
}

func (r websiteRequest) toDomain() domain.Website {
	return domain.Website{
		Name:        r.Name,
		Type:        r.Type,
		URL:         r.URL,
		TemplateID:  r.TemplateID,
		Content:     r.Content,
		Styles:      r.Styles,
		Scripts:     r.Scripts,
		Description: r.Description,
		Assets:      r.Assets,
	}
}

func (s *Server) listWebsites(c *gin.Context) {
	sites := s.Store.GetAll(c.Request.Context())
	resolved := make([]domain.Website, 0, len(sites))
	for _, w := range sites {
		resolved = append(resolved, s.Catalog.ResolveContent(w))
	}
	c.JSON(http.StatusOK, resolved)
}

func (s *Server) createWebsite(c *gin.Context) {
	var req websiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	w := req.toDomain()
	if err := w.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, syncPending, err := s.Store.Save(c.Request.Context(), w)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save website"})
		return
	}
	s.schedulePush(saved, syncPending)

	c.JSON(http.StatusCreated, saved)
}

func (s *Server) getWebsite(c *gin.Context) {
	w, err := s.Store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "website not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load website"})
		return
	}
	c.JSON(http.StatusOK, s.Catalog.ResolveContent(w))
}

func (s *Server) updateWebsite(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.Store.Get(c.Request.Context(), id); errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "website not found"})
		return
	}

	var req websiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	w := req.toDomain()
	w.ID = id
	saved, syncPending, err := s.Store.Save(c.Request.Context(), w)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save website"})
		return
	}
	s.schedulePush(saved, syncPending)

	c.JSON(http.StatusOK, saved)
}

func (s *Server) deleteWebsite(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	// Best-effort removal of the backup message before the record (and its
	// message id) disappears.
	if w, err := s.Store.Get(ctx, id); err == nil {
		if settings, serr := s.Store.Settings(ctx); serr == nil && settings.SyncEnabled() {
			s.Backup.Delete(ctx, w)
		}
	}

	existed, err := s.Store.Delete(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete website"})
		return
	}
	if !existed {
		c.JSON(http.StatusNotFound, gin.H{"error": "website not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) exportWebsite(c *gin.Context) {
	bundle, w, err := s.Packager.Export(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "website not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export website"})
		return
	}

	var buf bytes.Buffer
	if err := export.WriteZip(&buf, bundle); err != nil {
		s.Log.WithError(err).Error("Failed to write export archive")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to package website"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.ZipName(w)+`"`)
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func (s *Server) syncWebsite(c *gin.Context) {
	ctx := c.Request.Context()
	w, err := s.Store.Get(ctx, c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "website not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load website"})
		return
	}

	if !s.Backup.Push(ctx, w) {
		c.JSON(http.StatusBadGateway, gin.H{"synced": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": true})
}

func (s *Server) syncAll(c *gin.Context) {
	succeeded, total := s.Backup.PushAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"succeeded": succeeded, "total": total})
}

func (s *Server) previewWebsite(c *gin.Context) {
	if s.Renderer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "preview renderer not available"})
		return
	}

	ctx := c.Request.Context()
	w, err := s.Store.Get(ctx, c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "website not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load website"})
		return
	}

	// Previewing is a read, it must not transition the record's status the
	// way an export does.
	page, _ := s.Packager.Build(w).Get("index.html")
	png, err := s.Renderer.Render(ctx, string(page))
	if err != nil {
		s.Log.WithError(err).Warn("Preview rendering failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "preview rendering failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, s.Catalog.All())
}

func (s *Server) stats(c *gin.Context) {
	ctx := c.Request.Context()
	sites := s.Store.GetAll(ctx)
	deployed := 0
	for _, w := range sites {
		if w.Status == domain.StatusDeployed {
			deployed++
		}
	}

	var lastSync *time.Time
	if settings, err := s.Store.Settings(ctx); err == nil && !settings.LastSync.IsZero() {
		lastSync = &settings.LastSync
	}
	c.JSON(http.StatusOK, gin.H{
		"total":     len(sites),
		"deployed":  deployed,
		"last_sync": lastSync,
	})
}

func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.Store.Settings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

type settingsRequest struct {
	BotToken    string `json:"bot_token"`
	ChatID      string `json:"chat_id"`
	StorageMode string `json:"storage_mode"`
}

func (s *Server) updateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.StorageMode != "" && req.StorageMode != domain.ModeLocal && (req.BotToken == "" || req.ChatID == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bot token and chat id are required for sync mode"})
		return
	}

	settings := domain.Settings{
		BotToken:    req.BotToken,
		ChatID:      req.ChatID,
		StorageMode: req.StorageMode,
	}
	if err := s.Store.UpdateSettings(c.Request.Context(), settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

func (s *Server) verifySettings(c *gin.Context) {
	username, ok := s.Backup.VerifyCredentials(c.Request.Context())
	if !ok {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "username": username})
}

func (s *Server) deployWebsite(c *gin.Context) {
	var req deploy.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, deploy.Response{Success: false, Message: "invalid request body"})
		return
	}
	// The endpoint always answers 200 with a success flag, like the
	// original deploy script.
	c.JSON(http.StatusOK, s.Deployer.Deploy(req))
}

// schedulePush fires a backup push for the saved record without blocking
// the request. The push carries its own context so an already-answered
// request does not cancel it.
func (s *Server) schedulePush(w domain.Website, pending bool) {
	if !pending {
		return
	}
	go func() {
		if !s.Backup.Push(context.Background(), w) {
			s.Log.WithField("id", w.ID).Warn("Scheduled backup push failed")
		}
	}()
}
