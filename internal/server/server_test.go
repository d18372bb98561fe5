package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posterops/poster-translator/internal/batch"
	"github.com/posterops/poster-translator/internal/common"
	"github.com/posterops/poster-translator/internal/export"
	"github.com/posterops/poster-translator/internal/repository"
	"github.com/posterops/poster-translator/internal/translate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTranslator struct {
	err error
}

func (s *stubTranslator) TranslateImage(_ context.Context, _ translate.Request) (*translate.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		return nil, err
	}
	return &translate.Result{Bytes: buf.Bytes(), MIMEType: "image/png"}, nil
}

func setupServer(t *testing.T) (*Server, repository.SessionRepository) {
	t.Helper()
	dir := t.TempDir()

	cfg := &common.Config{}
	cfg.Server.Addr = ":0"
	cfg.Server.WebDir = filepath.Join(dir, "web")
	cfg.Storage.DataDir = filepath.Join(dir, "data")
	cfg.Storage.OutputDir = filepath.Join(dir, "outputs")
	cfg.Storage.ExportsDir = filepath.Join(dir, "exports")
	cfg.Languages = []string{"English", "Japanese"}
	require.NoError(t, cfg.EnsureDirs())

	db, err := repository.Open(context.Background(), cfg.Storage.DBPath(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sessions := repository.NewSessionRepository(db, nil)
	fileLogs := repository.NewFileLogRepository(db, nil)
	processor := batch.NewProcessor(&stubTranslator{}, sessions, fileLogs, cfg.Storage.OutputDir, "test-key", nil)
	exporter := export.NewService(sessions, nil)

	return New(cfg, processor, sessions, exporter, nil), sessions
}

func multipartBody(t *testing.T, language string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("language", language))
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func pngUpload(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestHandleTranslate_Success(t *testing.T) {
	srv, sessions := setupServer(t)

	body, contentType := multipartBody(t, "Japanese", map[string][]byte{"poster.png": pngUpload(t)})
	req := httptest.NewRequest(http.MethodPost, "/api/translate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		SessionID    int64  `json:"session_id"`
		SuccessCount int    `json:"success_count"`
		ErrorCount   int    `json:"error_count"`
		ZipURL       string `json:"zip_url"`
		Log          string `json:"log"`
		Gallery      []struct {
			ImageURL string `json:"image_url"`
			Label    string `json:"label"`
		} `json:"gallery"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Positive(t, resp.SessionID)
	assert.Equal(t, 1, resp.SuccessCount)
	assert.Equal(t, 0, resp.ErrorCount)
	require.Len(t, resp.Gallery, 1)
	assert.True(t, strings.HasPrefix(resp.Gallery[0].ImageURL, "/outputs/"), resp.Gallery[0].ImageURL)
	assert.True(t, strings.HasPrefix(resp.ZipURL, "/outputs/"), resp.ZipURL)
	assert.Contains(t, resp.Log, "[OK] poster.png")

	// The session landed in the ledger, finalized.
	got, err := sessions.ListRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].SuccessCount)
}

func TestHandleTranslate_NoFiles(t *testing.T) {
	srv, _ := setupServer(t)

	body, contentType := multipartBody(t, "English", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/translate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Upload at least one image")
}

func TestHandleTranslate_UnsupportedLanguage(t *testing.T) {
	srv, _ := setupServer(t)

	body, contentType := multipartBody(t, "Klingon", map[string][]byte{"poster.png": pngUpload(t)})
	req := httptest.NewRequest(http.MethodPost, "/api/translate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported language")
}

func TestHandleSessions(t *testing.T) {
	srv, sessions := setupServer(t)
	ctx := context.Background()

	id1, err := sessions.Start(ctx, "English", 2)
	require.NoError(t, err)
	require.NoError(t, sessions.Finalize(ctx, id1, 2, 0, "", 100))
	id2, err := sessions.Start(ctx, "Japanese", 1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions?limit=1", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Sessions []sessionRow `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, id2, resp.Sessions[0].ID)
	assert.Equal(t, "Japanese", resp.Sessions[0].Language)
}

func TestHandleSessions_BadLimit(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions?limit=banana", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleExportCSV(t *testing.T) {
	srv, sessions := setupServer(t)
	_, err := sessions.Start(context.Background(), "English", 1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/export/csv", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.HasPrefix(w.Body.String(), export.CSVHeader), w.Body.String())
}

func TestHealthz(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
