package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/meridel/inkwell/internal/catalog"
	"github.com/meridel/inkwell/internal/mcpserver"
	"github.com/meridel/inkwell/internal/projectservice"
	"github.com/meridel/inkwell/internal/storage"
)

// RunMCP serves the MCP tool set over stdio. Stdout carries the protocol,
// so logs go to stderr.
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

	if err := os.MkdirAll(cfg.Workspace.Path, 0o755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Workspace.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer db.Close()

	if err := catalog.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := projectservice.NewService(store, db, cfg.Engine.HistoryDepth)

	logger.Info("MCP server starting on stdio",
		slog.String("workspace_path", cfg.Workspace.Path))
	return mcpserver.New(svc).ServeStdio()
}
