package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/posterops/poster-translator/internal/common"
	"github.com/posterops/poster-translator/internal/repository/migrations"
)

// timeLayout matches the ledger's TEXT timestamp columns.
const timeLayout = "2006-01-02 15:04:05"

// Open opens (or creates) the SQLite usage ledger at dsn and applies any
// pending migrations.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening usage ledger", "dsn", dsn)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open usage ledger", "error", err)
		return nil, common.WrapError(err, "open sqlite")
	}
	// SQLite allows a single writer; one pooled connection avoids
	// SQLITE_BUSY under the sequential workload this ledger sees.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		logger.Error("failed to migrate usage ledger", "error", err)
		return nil, common.WrapError(err, "migrate sqlite")
	}

	logger.Info("usage ledger ready")
	return db, nil
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return common.WrapError(err, "set goose dialect")
	}
	return goose.UpContext(ctx, db, ".")
}

// HealthCheck pings the ledger to catch DSN issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}
