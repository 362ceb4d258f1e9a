// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/chrisd/bautagebuch/internal/api"
	"github.com/chrisd/bautagebuch/internal/calendar"
	"github.com/chrisd/bautagebuch/internal/diary"
	"github.com/chrisd/bautagebuch/internal/index"
	"github.com/chrisd/bautagebuch/internal/sse"
	"github.com/chrisd/bautagebuch/internal/storage"
)

// Option configures how the diary service is started.
type Option func(*application)

type application struct {
	config *Config
}

// WithConfig supplies the loaded configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("diary_path", cfg.Diary.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure data directory exists.
	if err := os.MkdirAll(cfg.Diary.Path, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Initialize storage.
	files, err := storage.NewFS(cfg.Diary.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite search index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Document store: load once, wire change events into the broker and
	// the index, then bring the index up to date.
	store := diary.NewStore(files, logger)
	store.SetOnChange(func(kind, id string) {
		broker.PublishDiaryEvent(kind, id)
		if err := index.Sync(db, store, logger); err != nil {
			logger.Warn("reindex failed", slog.String("error", err.Error()))
		}
	})
	store.Load()
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial index sync failed", slog.String("error", err.Error()))
	}

	// Background autosave: debounced form edits plus the fixed interval.
	saver := diary.NewAutosaver(func() {
		if err := store.Save(); err != nil {
			logger.Warn("autosave failed", slog.String("error", err.Error()))
		}
	}, diary.DefaultDebounce, diary.DefaultInterval)
	defer saver.Close()

	// Calendar cursor starts at the current month.
	now := time.Now()
	cursor := calendar.NewCursor(now.Year(), now.Month())

	// Build API router.
	apiRouter := api.NewRouter(store, db, cursor, saver, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// The watcher only exits on context cancellation; the shutdown goroutine
	// calls cancel once the HTTP server has drained so g.Wait can return.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the data directory for external edits to the document file.
	g.Go(func() error {
		if err := index.Watch(gCtx, db, store, files, cfg.Diary.Path, logger, nil); err != nil {
			logger.Warn("watcher exited", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Flush any edits that were still riding the debounce timer.
		if err := store.Save(); err != nil {
			logger.Error("final save failed", slog.String("error", err.Error()))
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
