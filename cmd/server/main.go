package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ganot/verdant/internal/api"
	"github.com/ganot/verdant/internal/config"
	"github.com/ganot/verdant/internal/domain/contact"
	"github.com/ganot/verdant/internal/domain/content"
	"github.com/ganot/verdant/internal/domain/project"
	"github.com/ganot/verdant/internal/mcp"
	"github.com/ganot/verdant/internal/storage"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logWriter := io.Writer(os.Stdout)
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	store, err := storage.Open(cfg.Store, logger)
	if err != nil {
		logger.Error("failed to configure store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// The store dials lazily; a failed ping only means requests will retry.
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		logger.Warn("store not reachable at startup", "backend", cfg.Store.Backend, "error", err)
	}
	cancel()

	projectSvc := project.NewService(store, logger)
	contactSvc, err := contact.NewService(store, logger)
	if err != nil {
		logger.Error("failed to create contact service", "error", err)
		os.Exit(1)
	}
	contentSvc, err := content.NewService(store, logger)
	if err != nil {
		logger.Error("failed to create content service", "error", err)
		os.Exit(1)
	}

	var mcpHandler http.Handler
	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer(mcp.Config{
			Services: mcp.Services{
				Projects: projectSvc,
				Ordering: projectSvc.Ordering(),
				Content:  contentSvc,
			},
			Version: version,
			Logger:  logger,
		})
		mcpHandler = mcp.NewHTTPHandler(mcpServer)
	}

	router := api.NewRouter(api.Config{
		Store:     store,
		Projects:  projectSvc,
		Contacts:  contactSvc,
		Content:   contentSvc,
		TokenHash: cfg.Auth.TokenHash,
		MCP:       mcpHandler,
		Logger:    logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "backend", cfg.Store.Backend, "mcp", cfg.MCP.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
