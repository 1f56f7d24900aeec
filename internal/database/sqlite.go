package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/prudhvimanvith/Gourmet/internal/config"

	_ "modernc.org/sqlite"
)

// filePragmas are applied by the driver to every new connection, in order.
// page_size only has an effect before the first table is created.
var filePragmas = []string{
	"page_size(4096)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"cache_size(-16000)",
}

// sqliteDSN builds a modernc DSN for path. Writers take the lock up front
// so two deductions never deadlock upgrading from a read lock.
func sqliteDSN(path string, pragmas []string) string {
	q := url.Values{"_txlock": {"immediate"}}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return "file:" + path + "?" + q.Encode()
}

func openSQLite(dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: a single writer, and :memory: is per connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	return sqlDB, nil
}

// Open opens the sqlite store at dbPath in WAL mode. A failed integrity
// check is logged, not returned, so Recover can run first. Scheduled
// backups start when cfg asks for them and backupDir is set.
func Open(dbPath string, cfg *config.DatabaseConfig, backupDir string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	sqlDB, err := openSQLite(sqliteDSN(dbPath, filePragmas))
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("applying pragmas: %w", err)
	}

	db := newDB(sqlDB, config.DriverSQLite, dbPath, cfg, backupDir)

	if err := db.CheckIntegrity(context.Background()); err != nil {
		slog.Warn("database integrity check failed", "error", err)
	}

	if cfg.BackupIntervalHours > 0 && backupDir != "" {
		db.startBackupScheduler()
	}
	return db, nil
}

// queryer is satisfied by *sql.DB and *DB.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// integrityCheck runs PRAGMA integrity_check and folds any reported
// problems into one error.
func integrityCheck(ctx context.Context, q queryer) error {
	rows, err := q.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return fmt.Errorf("running integrity check: %w", err)
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return fmt.Errorf("scanning integrity result: %w", err)
		}
		if line != "ok" {
			problems = append(problems, line)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating integrity results: %w", err)
	}
	if len(problems) > 0 {
		return fmt.Errorf("integrity check failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// CheckIntegrity verifies the sqlite file. Postgres always passes.
func (db *DB) CheckIntegrity(ctx context.Context) error {
	if db.driver != config.DriverSQLite {
		return nil
	}
	return integrityCheck(ctx, db)
}

// Checkpoint folds the WAL back into the main file. It is a no-op for
// postgres and in-memory stores.
func (db *DB) Checkpoint(ctx context.Context) error {
	if db.driver != config.DriverSQLite || db.path == ":memory:" {
		return nil
	}
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	return nil
}

// Stats describes the sqlite file and its pages. Only Path is set for
// postgres.
type Stats struct {
	Path          string
	SizeBytes     int64
	WALSizeBytes  int64
	PageCount     int64
	FreePageCount int64
	PageSize      int64
	JournalMode   string
}

// GetStats reads file sizes and page counters for the status command.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Path: db.path}
	if db.driver != config.DriverSQLite {
		return stats, nil
	}

	stats.SizeBytes = fileSize(db.path)
	stats.WALSizeBytes = fileSize(db.path + "-wal")

	counters := map[string]*int64{
		"page_count":     &stats.PageCount,
		"freelist_count": &stats.FreePageCount,
		"page_size":      &stats.PageSize,
	}
	for pragma, dest := range counters {
		if err := db.QueryRowContext(ctx, "PRAGMA "+pragma).Scan(dest); err != nil {
			return nil, fmt.Errorf("reading %s: %w", pragma, err)
		}
	}
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&stats.JournalMode); err != nil {
		return nil, fmt.Errorf("reading journal_mode: %w", err)
	}
	return stats, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
