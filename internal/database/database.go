// Package database provides the inventory store. SQLite is the default
// backend, with WAL mode and scheduled backups; PostgreSQL is reached
// through the pgx stdlib driver. Queries are written with ? placeholders and
// rebound for the active driver.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prudhvimanvith/Gourmet/internal/config"
)

// Driver names registered with database/sql.
const (
	sqliteDriverName   = "sqlite"
	postgresDriverName = "pgx"
)

// ErrClosed is returned for work started after Close.
var ErrClosed = errors.New("database is closed")

// DB wraps a sql.DB with driver awareness, backups and a transaction helper.
type DB struct {
	*sql.DB
	driver   config.Driver
	bindType int
	path     string
	config   *config.DatabaseConfig

	backupDir   string
	stopBackups context.CancelFunc
	backups     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// Connect opens the backend selected by cfg.Driver. dbPath and backupDir
// only apply to sqlite.
func Connect(ctx context.Context, cfg *config.DatabaseConfig, dbPath, backupDir string) (*DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg)
	case config.DriverSQLite, "":
		return Open(dbPath, cfg, backupDir)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func newDB(sqlDB *sql.DB, driver config.Driver, path string, cfg *config.DatabaseConfig, backupDir string) *DB {
	name := sqliteDriverName
	if driver == config.DriverPostgres {
		name = postgresDriverName
	}
	return &DB{
		DB:        sqlDB,
		driver:    driver,
		bindType:  sqlx.BindType(name),
		path:      path,
		config:    cfg,
		backupDir: backupDir,
	}
}

// Driver returns the active backend.
func (db *DB) Driver() config.Driver {
	return db.driver
}

// Rebind converts a query written with ? placeholders to the active
// driver's bind style.
func (db *DB) Rebind(query string) string {
	return sqlx.Rebind(db.bindType, query)
}

// Path returns the sqlite file path, empty for postgres.
func (db *DB) Path() string {
	return db.path
}

// IsClosed reports whether Close has been called.
func (db *DB) IsClosed() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.closed
}

// BeginTx starts a transaction. It fails with ErrClosed after Close.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if db.IsClosed() {
		return nil, ErrClosed
	}
	return db.DB.BeginTx(ctx, opts)
}

// WithTransaction runs fn in a transaction, committing when it returns nil
// and rolling back on an error or panic.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && err != nil {
				err = fmt.Errorf("rolling back after error %v: %w", err, rbErr)
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return nil
}

// HealthCheck round-trips a query through the pool.
func (db *DB) HealthCheck(ctx context.Context) error {
	if db.IsClosed() {
		return ErrClosed
	}
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("health check query: %w", err)
	}
	return nil
}

// Close stops the backup scheduler, checkpoints a sqlite WAL and closes the
// pool. Further calls are no-ops.
func (db *DB) Close() error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.closed = true
	db.mu.Unlock()

	if db.stopBackups != nil {
		db.stopBackups()
		db.backups.Wait()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		slog.Warn("final checkpoint failed", "error", err)
	}

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	slog.Info("database closed", "driver", db.driver)
	return nil
}
