package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialects supported by the run journal.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// DB is a database/sql handle plus the dialect it speaks.
type DB struct {
	*sql.DB
	Dialect string

	pool *pgxpool.Pool
}

// DialectFor picks the dialect from a DSN: postgres:// and postgresql:// URLs
// go to Postgres, anything else is a SQLite path (":memory:" included).
func DialectFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects to the journal database. Postgres goes through a pgx pool
// wrapped as *sql.DB; SQLite uses the pure Go driver with a single connection.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	dialect := DialectFor(cfg.DSN)
	logger.Info("repository.db.connecting", "dialect", dialect)

	switch dialect {
	case DialectPostgres:
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("repository.db.connect_failed", "error", err)
			return nil, err
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		if cfg.MaxConnLifetime > 0 {
			pc.MaxConnLifetime = cfg.MaxConnLifetime
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "glr-generator"

		dctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		pool, err := pgxpool.NewWithConfig(dctx, pc)
		if err != nil {
			logger.Error("repository.db.connect_failed", "error", err)
			return nil, err
		}
		logger.Info("repository.db.connected", "dialect", dialect)
		return &DB{DB: stdlib.OpenDBFromPool(pool), Dialect: dialect, pool: pool}, nil

	default:
		db, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			logger.Error("repository.db.connect_failed", "error", err)
			return nil, err
		}
		// One connection keeps ":memory:" databases shared and writes serialized.
		db.SetMaxOpenConns(1)
		logger.Info("repository.db.connected", "dialect", dialect)
		return &DB{DB: db, Dialect: dialect}, nil
	}
}

// Close closes the database connections gracefully
func Close(db *DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("repository.db.closing")
	if err := db.DB.Close(); err != nil {
		logger.Error("repository.db.close_failed", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
	logger.Info("repository.db.closed")
}

// HealthCheck pings the database to catch DSN issues early.
func HealthCheck(ctx context.Context, db *DB, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("repository.db.ping")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("repository.db.ping_failed", "error", err)
		return err
	}
	logger.Debug("repository.db.ping_ok")
	return nil
}

const runTableDDL = `CREATE TABLE IF NOT EXISTS glr_run (
	id               TEXT PRIMARY KEY,
	template_name    TEXT NOT NULL,
	report_name      TEXT NOT NULL,
	variant          TEXT,
	status           TEXT NOT NULL,
	error_message    TEXT,
	model_name       TEXT,
	fields_extracted INTEGER NOT NULL DEFAULT 0,
	tokens_replaced  INTEGER NOT NULL DEFAULT 0,
	started_at       %[1]s NOT NULL,
	finished_at      %[1]s
)`

const runIndexDDL = `CREATE INDEX IF NOT EXISTS glr_run_started_at_idx ON glr_run (started_at)`

// Migrate creates the journal schema if it does not exist yet.
func Migrate(ctx context.Context, db *DB) error {
	tsType := "TIMESTAMP"
	if db.Dialect == DialectPostgres {
		tsType = "TIMESTAMPTZ"
	}
	for _, stmt := range []string{fmt.Sprintf(runTableDDL, tsType), runIndexDDL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $1..$n for Postgres.
func (db *DB) rebind(query string) string {
	if db.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
