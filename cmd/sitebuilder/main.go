package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sitebuilder/internal/api"
	"sitebuilder/internal/backup"
	"sitebuilder/internal/bot"
	"sitebuilder/internal/config"
	"sitebuilder/internal/deploy"
	"sitebuilder/internal/export"
	"sitebuilder/internal/preview"
	"sitebuilder/internal/storage"
	"sitebuilder/internal/template"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.WithFields(logrus.Fields{
		"badgerdb_path": cfg.BadgerDBPath,
		"listen_addr":   cfg.ListenAddr,
		"public_dir":    cfg.PublicDir,
	}).Info("Configuration loaded successfully")

	// --- Initialize Components ---
	log.Info("Initializing components...")

	store, err := storage.NewBadgerStore(cfg.BadgerDBPath, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		log.Info("Closing database...")
		if err := store.Close(); err != nil {
			log.WithError(err).Error("Error closing database")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seedSettings(ctx, cfg, store, log)

	catalog := template.NewCatalog(store.Templates(ctx)...)
	backupClient := backup.NewClient(store, log)
	packager := export.NewPackager(catalog, store, log)
	deployer := deploy.NewDeployer(cfg.PublicDir, cfg.BaseURL, log)
	renderer := preview.NewRodRenderer(log)

	// --- HTTP Server ---
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware())
	r.Static("/websites", cfg.PublicDir)

	srv := &api.Server{
		Store:    store,
		Catalog:  catalog,
		Backup:   backupClient,
		Packager: packager,
		Deployer: deployer,
		Renderer: renderer,
		Log:      log,
	}
	srv.RegisterRoutes(r)

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	// --- Application Startup ---
	log.Info("Starting sitebuilder...")

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	if cfg.EnableBot {
		botHandler, err := bot.NewHandler(cfg.TelegramBotToken, store, backupClient, log)
		if err != nil {
			log.Fatalf("Failed to initialize Telegram bot handler: %v", err)
		}
		go botHandler.Start(ctx)
	}

	log.Info("sitebuilder is running. Press Ctrl+C to exit.")

	// --- Wait for Shutdown Signal ---
	<-ctx.Done()

	// --- Graceful Shutdown ---
	log.Info("Shutting down sitebuilder...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	log.Info("sitebuilder shut down gracefully.")
}

// seedSettings copies bootstrap Telegram credentials into the store's
// settings slots, but only when the store has none yet: runtime updates via
// the API always win over the config file.
func seedSettings(ctx context.Context, cfg config.Config, store storage.Store, log logrus.FieldLogger) {
	if cfg.TelegramBotToken == "" {
		return
	}
	settings, err := store.Settings(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not read settings, skipping credential seed")
		return
	}
	if settings.BotToken != "" {
		return
	}
	settings.BotToken = cfg.TelegramBotToken
	settings.ChatID = cfg.TelegramChatID
	if err := store.UpdateSettings(ctx, settings); err != nil {
		log.WithError(err).Warn("Could not seed Telegram credentials")
		return
	}
	log.Info("Seeded Telegram credentials from bootstrap config")
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
