package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vidsink/vidsink/internal/config"
	"github.com/vidsink/vidsink/internal/events"
	"github.com/vidsink/vidsink/internal/feed"
	httpapp "github.com/vidsink/vidsink/internal/http"
	"github.com/vidsink/vidsink/internal/httpclient"
	"github.com/vidsink/vidsink/internal/logger"
	"github.com/vidsink/vidsink/internal/scheduler"
	"github.com/vidsink/vidsink/internal/store"
	"github.com/vidsink/vidsink/internal/supervisor"
	"github.com/vidsink/vidsink/internal/transcribe"
	"github.com/vidsink/vidsink/internal/ytdlp"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Event fanout for the SSE stream
	bus := events.NewBus()
	defer bus.Close()

	// Download side
	runner := ytdlp.NewRunner(cfg.YtdlpPath, appLogger)
	sup := supervisor.New(db, bus, runner, cfg, appLogger)
	sup.Start()
	defer sup.Close()

	// Feed side
	client := httpclient.NewClient(nil, time.Second)
	resolver := feed.NewResolver(client, runner, appLogger)
	fetcher := feed.NewFetcher(client, appLogger)
	lister := feed.NewLister(runner, appLogger)
	avatar := feed.NewAvatarResolver(client, runner, appLogger)
	feeds := feed.NewService(db, bus, fetcher, lister, resolver, avatar, sup, appLogger)
	defer feeds.Close()

	// Transcription
	transcripts := transcribe.NewService(db, bus, cfg, appLogger)
	defer transcripts.Close()

	// Periodic feed checks
	sched := scheduler.New(db, feeds, appLogger)
	sched.Start()
	defer sched.Stop()

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Routes
	h := httpapp.NewHandler(sup, feeds, transcripts, sched, db, bus, runner, appLogger)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exiting")
}
