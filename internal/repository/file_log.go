package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/posterops/poster-translator/constants"
	"github.com/posterops/poster-translator/internal/common"
	"github.com/posterops/poster-translator/internal/entity"
)

type FileLogRepository interface {
	// Append records the outcome of one file within a session.
	Append(ctx context.Context, sessionID int64, filename string, status constants.FileStatus, outMIME, message string) (int64, error)
	// ListBySession returns a session's file logs in append order.
	ListBySession(ctx context.Context, sessionID int64) ([]entity.FileLogEntry, error)
}

type fileLogRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewFileLogRepository(db *sql.DB, log *slog.Logger) FileLogRepository {
	if log == nil {
		log = slog.Default()
	}
	return &fileLogRepo{db: db, log: log}
}

func (r *fileLogRepo) Append(ctx context.Context, sessionID int64, filename string, status constants.FileStatus, outMIME, message string) (int64, error) {
	ts := time.Now().Format(timeLayout)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO file_logs (session_id, ts, filename, status, out_mime, message) VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, ts, filename, string(status), outMIME, message)
	if err != nil {
		r.log.Error("file log append failed", "session_id", sessionID, "filename", filename, "error", err)
		return 0, common.WrapError(err, "insert file log")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, common.WrapError(err, "file log id")
	}
	return id, nil
}

func (r *fileLogRepo) ListBySession(ctx context.Context, sessionID int64) ([]entity.FileLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, ts, filename, status, IFNULL(out_mime,''), IFNULL(message,'')
		 FROM file_logs WHERE session_id=? ORDER BY id ASC`, sessionID)
	if err != nil {
		r.log.Error("file log list failed", "session_id", sessionID, "error", err)
		return nil, common.WrapError(err, "select file logs")
	}
	defer rows.Close()

	var result []entity.FileLogEntry
	for rows.Next() {
		var e entity.FileLogEntry
		var ts, status string
		if err := rows.Scan(&e.ID, &e.SessionID, &ts, &e.Filename, &status, &e.OutMIME, &e.Message); err != nil {
			return nil, common.WrapError(err, "scan file log")
		}
		e.TS, _ = time.Parse(timeLayout, ts)
		e.Status = constants.FileStatus(status)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate file logs")
	}
	return result, nil
}
