// Package server exposes the web UI and JSON API over gin.
package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/posterops/poster-translator/internal/batch"
	"github.com/posterops/poster-translator/internal/common"
	"github.com/posterops/poster-translator/internal/export"
	"github.com/posterops/poster-translator/internal/repository"
)

type Server struct {
	cfg       *common.Config
	router    *gin.Engine
	processor *batch.Processor
	sessions  repository.SessionRepository
	exporter  *export.Service
	log       *slog.Logger
}

func New(cfg *common.Config, processor *batch.Processor, sessions repository.SessionRepository, exporter *export.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.Default()
	r.MaxMultipartMemory = 32 << 20

	s := &Server{
		cfg:       cfg,
		router:    r,
		processor: processor,
		sessions:  sessions,
		exporter:  exporter,
		log:       logger,
	}

	r.Static("/outputs", cfg.Storage.OutputDir)
	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(cfg.Server.WebDir, "index.html"))
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/languages", s.handleLanguages)
	api.POST("/translate", s.handleTranslate)
	api.GET("/sessions", s.handleSessions)
	api.GET("/export/csv", s.handleExportCSV)
	api.GET("/export/xlsx", s.handleExportXLSX)

	return s
}

// Handler returns the HTTP handler for mounting into an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": s.cfg.Languages})
}

type galleryItem struct {
	ImageURL string `json:"image_url"`
	ThumbURL string `json:"thumb_url,omitempty"`
	Label    string `json:"label"`
}

func (s *Server) handleTranslate(c *gin.Context) {
	const op = "server.handleTranslate"

	language := c.PostForm("language")
	if language == "" {
		language = s.cfg.Languages[0]
	}
	if !s.cfg.AllowedLanguage(language) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language: " + language})
		return
	}
	apiKey := c.PostForm("api_key")

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	files := form.File["files"]

	// Spool uploads to a per-request directory; the batch processor reads
	// from paths, the originals are gone once we respond.
	upDir := filepath.Join(os.TempDir(), "poster-uploads", uuid.New().String())
	if err := os.MkdirAll(upDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": op + ": " + err.Error()})
		return
	}
	defer os.RemoveAll(upDir)

	items := make([]batch.Item, 0, len(files))
	for _, fh := range files {
		dst := filepath.Join(upDir, filepath.Base(fh.Filename))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": op + ": " + err.Error()})
			return
		}
		items = append(items, batch.Item{Path: dst})
	}

	report, err := s.processor.Run(c.Request.Context(), items, language, apiKey, nil)
	if err != nil {
		s.log.Error("translate request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if report.Message != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": report.Message})
		return
	}

	gallery := make([]galleryItem, 0, len(report.Gallery))
	for _, g := range report.Gallery {
		gallery = append(gallery, galleryItem{
			ImageURL: s.outputURL(g.OutputPath),
			ThumbURL: s.outputURL(g.ThumbPath),
			Label:    g.Label,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":    report.SessionID,
		"success_count": report.SuccessCount,
		"error_count":   report.ErrorCount,
		"gallery":       gallery,
		"zip_url":       s.outputURL(report.ZipPath),
		"log":           report.Log,
	})
}

type sessionRow struct {
	ID           int64  `json:"id"`
	TS           string `json:"ts"`
	Language     string `json:"language"`
	FileCount    int    `json:"file_count"`
	SuccessCount int    `json:"success_count"`
	ErrorCount   int    `json:"error_count"`
	ZipPath      string `json:"zip_path"`
	DurationMS   int64  `json:"duration_ms"`
}

func (s *Server) handleSessions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	sessions, err := s.sessions.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rows := make([]sessionRow, 0, len(sessions))
	for _, sess := range sessions {
		rows = append(rows, sessionRow{
			ID:           sess.ID,
			TS:           sess.TS.Format("2006-01-02 15:04:05"),
			Language:     sess.Language,
			FileCount:    sess.FileCount,
			SuccessCount: sess.SuccessCount,
			ErrorCount:   sess.ErrorCount,
			ZipPath:      sess.ZipPath,
			DurationMS:   sess.DurationMS,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": rows})
}

func (s *Server) handleExportCSV(c *gin.Context) {
	data, err := s.exporter.SessionsCSV(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	name := "usage_logs_" + time.Now().Format("20060102_150405") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (s *Server) handleExportXLSX(c *gin.Context) {
	data, err := s.exporter.SessionsXLSX(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	name := "usage_logs_" + time.Now().Format("20060102_150405") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// outputURL maps a path under the output root to its static mount. Paths
// outside the root (or empty ones) yield an empty URL.
func (s *Server) outputURL(path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(s.cfg.Storage.OutputDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return "/outputs/" + filepath.ToSlash(rel)
}
