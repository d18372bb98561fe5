package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/posterops/poster-translator/internal/batch"
	"github.com/posterops/poster-translator/internal/common"
	"github.com/posterops/poster-translator/internal/export"
	"github.com/posterops/poster-translator/internal/repository"
	"github.com/posterops/poster-translator/internal/server"
	"github.com/posterops/poster-translator/internal/translate/gemini"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file (optional)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	db, err := repository.Open(ctx, cfg.Storage.DBPath(), logger)
	if err != nil {
		logger.Error("failed to open usage ledger", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.HealthCheck(ctx, db, 3*time.Second); err != nil {
		logger.Error("ledger health check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ledger health OK")

	sessions := repository.NewSessionRepository(db, logger)
	fileLogs := repository.NewFileLogRepository(db, logger)

	translator := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout,
	}, logger)
	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, requests must supply their own key")
	}

	processor := batch.NewProcessor(translator, sessions, fileLogs, cfg.Storage.OutputDir, cfg.Gemini.APIKey, logger)
	exporter := export.NewService(sessions, logger)
	srv := server.New(cfg, processor, sessions, exporter, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr, "model", cfg.Gemini.Model)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
