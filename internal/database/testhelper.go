package database

import (
	"context"
	"fmt"

	"github.com/prudhvimanvith/Gourmet/internal/config"
)

// NewInMemory opens an empty in-memory store with foreign keys on. WAL and
// migrations are left off.
func NewInMemory() (*DB, error) {
	sqlDB, err := openSQLite(sqliteDSN(":memory:", []string{"foreign_keys(1)"}))
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	return newDB(sqlDB, config.DriverSQLite, ":memory:", &config.DatabaseConfig{Driver: config.DriverSQLite}, ""), nil
}

// NewMigratedInMemory opens an in-memory database and applies every migration.
func NewMigratedInMemory(ctx context.Context) (*DB, error) {
	db, err := NewInMemory()
	if err != nil {
		return nil, err
	}

	m, err := NewMigrator(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	if _, err := m.MigrateUp(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
