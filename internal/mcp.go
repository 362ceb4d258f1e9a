package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chrisd/bautagebuch/internal/diary"
	"github.com/chrisd/bautagebuch/internal/index"
	"github.com/chrisd/bautagebuch/internal/mcpserver"
	"github.com/chrisd/bautagebuch/internal/storage"
)

// RunMCP serves the diary tools over MCP stdio. Logging goes to stderr
// because stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Diary.Path, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	files, err := storage.NewFS(cfg.Diary.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	store := diary.NewStore(files, logger)
	store.Load()
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial index sync failed", slog.String("error", err.Error()))
	}

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(store, db).ServeStdio()
}
