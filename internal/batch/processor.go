// Package batch runs one translation session over an ordered list of
// uploaded files: encode, call the translation service, persist outcomes,
// package successes.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/posterops/poster-translator/constants"
	"github.com/posterops/poster-translator/internal/codec"
	"github.com/posterops/poster-translator/internal/common"
	"github.com/posterops/poster-translator/internal/repository"
	"github.com/posterops/poster-translator/internal/translate"
)

// Item is one uploaded file queued for translation.
type Item struct {
	Path string
}

// GalleryEntry points at one translated output and its preview.
type GalleryEntry struct {
	OutputPath string
	ThumbPath  string // empty if the preview could not be rendered
	Label      string
}

// Report is the aggregate outcome of one batch.
type Report struct {
	SessionID    int64
	Gallery      []GalleryEntry
	ZipPath      string // empty when no item succeeded
	Log          string // newline-joined per-item outcomes, in processing order
	SuccessCount int
	ErrorCount   int

	// Message is set instead of the other fields when the batch was
	// rejected before a session was created.
	Message string
}

// ProgressFunc is called after each processed item. May be nil.
type ProgressFunc func(done, total int, msg string)

type Processor struct {
	translator translate.ImageTranslator
	sessions   repository.SessionRepository
	fileLogs   repository.FileLogRepository
	outputRoot string
	defaultKey string
	log        *slog.Logger
}

func NewProcessor(translator translate.ImageTranslator, sessions repository.SessionRepository, fileLogs repository.FileLogRepository, outputRoot, defaultKey string, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		translator: translator,
		sessions:   sessions,
		fileLogs:   fileLogs,
		outputRoot: outputRoot,
		defaultKey: defaultKey,
		log:        logger,
	}
}

// Run processes items strictly in input order, one outbound call at a time.
// A failing item never aborts the batch; once a session has been started it
// is always finalized. The two validation short-circuits (no items, no
// credential) return a user-facing Message without touching the ledger.
func (p *Processor) Run(ctx context.Context, items []Item, targetLanguage, apiKey string, progress ProgressFunc) (*Report, error) {
	if len(items) == 0 {
		return &Report{Message: "Upload at least one image first."}, nil
	}
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = strings.TrimSpace(p.defaultKey)
	}
	if key == "" {
		return &Report{Message: "Missing GEMINI_API_KEY. Enter a key or set the environment variable."}, nil
	}

	outDir := filepath.Join(p.outputRoot, "batch_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, common.NewAppError("OUTPUT_DIR", err.Error(), common.ErrIO)
	}

	instruction := translate.BuildInstruction(targetLanguage)
	total := len(items)

	sessionID, err := p.sessions.Start(ctx, targetLanguage, total)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	p.log.Info("batch.start",
		"session_id", sessionID,
		"language", targetLanguage,
		"file_count", total,
		"out_dir", outDir,
	)
	if progress != nil {
		progress(0, total, fmt.Sprintf("processing %d images", total))
	}

	report := &Report{SessionID: sessionID}
	var logLines []string
	for idx, item := range items {
		filename := filepath.Base(item.Path)

		res, outPath, err := p.processItem(ctx, item, instruction, key, outDir)
		if err != nil {
			logLines = append(logLines, fmt.Sprintf("[ERR] %s -> %v", filename, err))
			p.appendLog(ctx, sessionID, filename, constants.FileStatusErr, "", err.Error())
			report.ErrorCount++
			p.log.Warn("batch.item.err", "session_id", sessionID, "filename", filename, "error", err)
		} else {
			entry := GalleryEntry{OutputPath: outPath, Label: filename + " ✅"}
			if thumb, terr := makeThumbnail(outPath); terr != nil {
				p.log.Warn("batch.item.thumbnail_failed", "session_id", sessionID, "filename", filename, "error", terr)
			} else {
				entry.ThumbPath = thumb
			}
			report.Gallery = append(report.Gallery, entry)
			logLines = append(logLines, fmt.Sprintf("[OK] %s -> %s (%s)", filename, filepath.Base(outPath), res.MIMEType))
			p.appendLog(ctx, sessionID, filename, constants.FileStatusOK, res.MIMEType, "converted")
			report.SuccessCount++
			p.log.Info("batch.item.ok", "session_id", sessionID, "filename", filename, "out", outPath)
		}

		if progress != nil {
			progress(idx+1, total, fmt.Sprintf("finished %d/%d", idx+1, total))
		}
	}

	if report.SuccessCount > 0 {
		zipPath := filepath.Join(outDir, "translated_images.zip")
		outputs := make([]string, 0, len(report.Gallery))
		for _, g := range report.Gallery {
			outputs = append(outputs, g.OutputPath)
		}
		if err := CreateZip(outputs, zipPath); err != nil {
			p.log.Error("batch.zip_failed", "session_id", sessionID, "error", err)
		} else {
			report.ZipPath = zipPath
			logLines = append(logLines, "packaged: "+zipPath)
		}
	}

	durationMS := time.Since(start).Milliseconds()
	if err := p.sessions.Finalize(ctx, sessionID, report.SuccessCount, report.ErrorCount, report.ZipPath, durationMS); err != nil {
		p.log.Error("batch.finalize_failed", "session_id", sessionID, "error", err)
	}

	p.log.Info("batch.done",
		"session_id", sessionID,
		"success_count", report.SuccessCount,
		"error_count", report.ErrorCount,
		"duration_ms", durationMS,
	)

	report.Log = strings.Join(logLines, "\n")
	return report, nil
}

// processItem runs the per-file pipeline: encode, translate, write output.
func (p *Processor) processItem(ctx context.Context, item Item, instruction, apiKey, outDir string) (*translate.Result, string, error) {
	enc, err := codec.EncodeImage(item.Path)
	if err != nil {
		return nil, "", err
	}

	res, err := p.translator.TranslateImage(ctx, translate.Request{
		Image:       enc,
		Instruction: instruction,
		APIKey:      apiKey,
	})
	if err != nil {
		return nil, "", err
	}

	filename := filepath.Base(item.Path)
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	outPath := filepath.Join(outDir, stem+"_translated"+codec.ExtensionForMIME(res.MIMEType))
	if err := os.WriteFile(outPath, res.Bytes, 0o644); err != nil {
		return nil, "", common.NewAppError("WRITE_OUTPUT", err.Error(), common.ErrIO)
	}
	return res, outPath, nil
}

// appendLog records a file outcome; a ledger write failure is logged but does
// not fail the item.
func (p *Processor) appendLog(ctx context.Context, sessionID int64, filename string, status constants.FileStatus, outMIME, message string) {
	if _, err := p.fileLogs.Append(ctx, sessionID, filename, status, outMIME, message); err != nil {
		p.log.Error("batch.file_log_failed", "session_id", sessionID, "filename", filename, "error", err)
	}
}
