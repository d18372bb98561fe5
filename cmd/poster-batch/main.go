package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/posterops/poster-translator/constants"
	"github.com/posterops/poster-translator/internal/batch"
	"github.com/posterops/poster-translator/internal/common"
	"github.com/posterops/poster-translator/internal/export"
	"github.com/posterops/poster-translator/internal/repository"
	"github.com/posterops/poster-translator/internal/translate/gemini"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir       = flag.String("dir", "", "directory with poster images to translate (required)")
		lang      = flag.String("lang", constants.DefaultTargetLanguage, "target language")
		exportCSV = flag.String("export", "", "write the usage ledger to this CSV file after the run (optional)")
		inmem     = flag.Bool("inmem", false, "use an in-memory SQLite ledger")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg, err := common.LoadConfig("")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if !cfg.AllowedLanguage(*lang) {
		printError("Error: unsupported language %q, choose one of: %s\n", *lang, strings.Join(cfg.Languages, ", "))
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Storage.DBPath()
	if *inmem {
		dsn = ":memory:"
	}
	db, err := repository.Open(ctx, dsn, logger)
	if err != nil {
		logger.Error("failed to open usage ledger", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sessions := repository.NewSessionRepository(db, logger)
	fileLogs := repository.NewFileLogRepository(db, logger)

	translator := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout,
	}, logger)

	items, err := collectItems(*dir)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("scanned directory", "dir", *dir, "files", len(items))

	processor := batch.NewProcessor(translator, sessions, fileLogs, cfg.Storage.OutputDir, cfg.Gemini.APIKey, logger)
	report, err := processor.Run(ctx, items, *lang, "", func(done, total int, msg string) {
		fmt.Printf("[%d/%d] %s\n", done, total, msg)
	})
	if err != nil {
		logger.Error("batch run failed", "error", err)
		os.Exit(1)
	}
	if report.Message != "" {
		printError("Error: %s\n", report.Message)
		os.Exit(1)
	}

	if *exportCSV != "" {
		exporter := export.NewService(sessions, logger)
		data, err := exporter.SessionsCSV(ctx)
		if err != nil {
			logger.Error("failed to export usage ledger", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*exportCSV, data, 0644); err != nil {
			logger.Error("failed to write export file", "path", *exportCSV, "error", err)
			os.Exit(1)
		}
		logger.Info("usage ledger exported", "path", *exportCSV)
	}

	fmt.Printf("Batch translation complete!\n")
	fmt.Printf("- Session: %d\n", report.SessionID)
	fmt.Printf("- Succeeded: %d\n", report.SuccessCount)
	fmt.Printf("- Failed: %d\n", report.ErrorCount)
	if report.ZipPath != "" {
		fmt.Printf("- Archive: %s\n", report.ZipPath)
	}
}

// collectItems lists supported image files directly under dir, sorted by name.
// Hidden files and unsupported extensions are skipped.
func collectItems(dir string) ([]batch.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var items []batch.Item
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !constants.AllowedExt(filepath.Ext(e.Name())) {
			continue
		}
		items = append(items, batch.Item{Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}
