package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reddmirror/reddmirror/app/api"
	"github.com/reddmirror/reddmirror/app/cfg"
	"github.com/reddmirror/reddmirror/app/database"
	"github.com/reddmirror/reddmirror/app/feed"
	"github.com/reddmirror/reddmirror/app/media"
	"github.com/reddmirror/reddmirror/app/sources"
	"github.com/reddmirror/reddmirror/app/sync"
	"github.com/reddmirror/reddmirror/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Reddmirror", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	if err := os.MkdirAll(appCfg.MediaDir, 0755); err != nil {
		slog.Error("Failed to create media directory", "path", appCfg.MediaDir, "error", err)
		os.Exit(1)
	}

	subscriptionRepo := database.NewSubscriptionRepository(db)
	itemRepo := database.NewItemRepository(db)
	mediaRepo := database.NewMediaRepository(db)

	registerSources(subscriptionRepo, appCfg.SourcesFile)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	clients := map[string]feed.Client{
		database.SubscriptionKindSubreddit: feed.NewRedditClient(httpClient, appCfg.FeedBaseURL, appCfg.FeedAccessToken, appCfg.UserAgent),
		database.SubscriptionKindRSS:       feed.NewRSSClient(httpClient, appCfg.UserAgent),
	}

	downloader := media.NewDownloader(httpClient, appCfg.MediaDir, appCfg.MaxMediaSize, appCfg.UserAgent)
	coordinator := media.NewCoordinator(downloader, appCfg.MaxConcurrentDownloads)
	poller := sync.NewPoller(clients, time.Duration(appCfg.PacingDelayMs)*time.Millisecond)
	syncService := sync.NewService(subscriptionRepo, itemRepo, mediaRepo, poller, coordinator)

	scheduler := tasks.NewScheduler(syncService)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "interval_seconds", appCfg.SyncInterval)

	apiHandler := api.NewHandler(subscriptionRepo, itemRepo, mediaRepo, syncService, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

// registerSources seeds subscriptions from the registry file. Failures are
// logged but never fatal: the registry is optional and subscriptions can be
// managed over the API.
func registerSources(subscriptionRepo database.SubscriptionRepository, path string) {
	srcs, err := sources.Load(path)
	if err != nil {
		slog.Warn("Failed to load sources file", "path", path, "error", err)
		return
	}
	if len(srcs) == 0 {
		return
	}

	registered := 0
	for _, src := range srcs {
		created, err := subscriptionRepo.CreateSubscription(src.Source, src.Kind, src.Title)
		if err != nil {
			slog.Warn("Failed to register subscription", "source", src.Source, "error", err)
			continue
		}
		if created {
			registered++
		}
	}
	slog.Info("Subscriptions registered from sources file", "path", path, "new", registered, "total", len(srcs))
}
