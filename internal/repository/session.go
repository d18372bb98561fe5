package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/posterops/poster-translator/internal/common"
	"github.com/posterops/poster-translator/internal/entity"
)

type SessionRepository interface {
	// Start registers an in-progress session and returns its id.
	Start(ctx context.Context, language string, fileCount int) (int64, error)
	// Finalize fills in the outcome fields exactly once, at batch end.
	Finalize(ctx context.Context, id int64, successCount, errorCount int, zipPath string, durationMS int64) error
	// ListRecent returns up to limit sessions, newest first.
	ListRecent(ctx context.Context, limit int) ([]entity.Session, error)
	// ListAll returns every session, newest first.
	ListAll(ctx context.Context) ([]entity.Session, error)
}

type sessionRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSessionRepository(db *sql.DB, log *slog.Logger) SessionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &sessionRepo{db: db, log: log}
}

func (r *sessionRepo) Start(ctx context.Context, language string, fileCount int) (int64, error) {
	ts := time.Now().Format(timeLayout)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (ts, language, file_count) VALUES (?, ?, ?)`,
		ts, language, fileCount)
	if err != nil {
		r.log.Error("session start failed", "language", language, "error", err)
		return 0, common.WrapError(err, "insert session")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, common.WrapError(err, "session id")
	}
	r.log.Info("session started", "session_id", id, "language", language, "file_count", fileCount)
	return id, nil
}

func (r *sessionRepo) Finalize(ctx context.Context, id int64, successCount, errorCount int, zipPath string, durationMS int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET success_count=?, error_count=?, zip_path=?, duration_ms=? WHERE id=?`,
		successCount, errorCount, zipPath, durationMS, id)
	if err != nil {
		r.log.Error("session finalize failed", "session_id", id, "error", err)
		return common.WrapError(err, "finalize session")
	}
	r.log.Info("session finalized",
		"session_id", id,
		"success_count", successCount,
		"error_count", errorCount,
		"duration_ms", durationMS,
	)
	return nil
}

func (r *sessionRepo) ListRecent(ctx context.Context, limit int) ([]entity.Session, error) {
	return r.list(ctx, `SELECT id, ts, language, file_count, success_count, error_count, IFNULL(zip_path,''), duration_ms
		FROM sessions ORDER BY id DESC LIMIT ?`, limit)
}

func (r *sessionRepo) ListAll(ctx context.Context) ([]entity.Session, error) {
	return r.list(ctx, `SELECT id, ts, language, file_count, success_count, error_count, IFNULL(zip_path,''), duration_ms
		FROM sessions ORDER BY id DESC`)
}

func (r *sessionRepo) list(ctx context.Context, query string, args ...any) ([]entity.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("session list failed", "error", err)
		return nil, common.WrapError(err, "select sessions")
	}
	defer rows.Close()

	var result []entity.Session
	for rows.Next() {
		var s entity.Session
		var ts string
		if err := rows.Scan(&s.ID, &ts, &s.Language, &s.FileCount, &s.SuccessCount, &s.ErrorCount, &s.ZipPath, &s.DurationMS); err != nil {
			return nil, common.WrapError(err, "scan session")
		}
		s.TS, _ = time.Parse(timeLayout, ts)
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate sessions")
	}
	return result, nil
}
