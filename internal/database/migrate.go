package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/prudhvimanvith/Gourmet/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one embedded schema version.
type Migration struct {
	Version     int
	Description string
	Applied     bool
}

// MigrationResult reports a migrate run. Applied lists the versions moved
// through, in the order they ran.
type MigrationResult struct {
	FromVersion int
	ToVersion   int
	Applied     []Migration
}

// Migrator runs the embedded migrations against a DB. It never closes the
// underlying handle; the DB owns it.
type Migrator struct {
	migrate    *migrate.Migrate
	migrations []Migration
	logger     *slog.Logger
}

// NewMigrator creates a Migrator for the driver db was opened with. The
// driver creates schema_migrations if it does not exist.
func NewMigrator(db *DB) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}

	migrations, err := listMigrations(src)
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	driver, name, err := db.migrationDriver()
	if err != nil {
		return nil, fmt.Errorf("creating %s migration driver: %w", db.driver, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}

	logger := slog.Default().With("component", "migrate")
	m.Log = migrateLog{logger: logger}

	return &Migrator{migrate: m, migrations: migrations, logger: logger}, nil
}

func (db *DB) migrationDriver() (migratedb.Driver, string, error) {
	switch db.driver {
	case config.DriverPostgres:
		driver, err := pgxmigrate.WithInstance(db.DB, &pgxmigrate.Config{})
		return driver, "pgx5", err
	default:
		driver, err := sqlitemigrate.WithInstance(db.DB, &sqlitemigrate.Config{})
		return driver, "sqlite", err
	}
}

// listMigrations walks the source in version order. Descriptions come from
// the file names: 002_ledger.up.sql is "ledger".
func listMigrations(src source.Driver) ([]Migration, error) {
	var migrations []Migration

	version, err := src.First()
	for err == nil {
		r, identifier, readErr := src.ReadUp(version)
		if readErr != nil {
			return nil, fmt.Errorf("reading migration %d: %w", version, readErr)
		}
		r.Close()

		migrations = append(migrations, Migration{
			Version:     int(version),
			Description: strings.ReplaceAll(identifier, "_", " "),
		})
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return migrations, nil
}

// CurrentVersion returns the applied schema version, 0 for an empty store.
// A dirty version means a migration failed half way; see Force.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return int(version), fmt.Errorf("schema version %d is dirty: %w", version, migrate.ErrDirty{Version: int(version)})
	}
	return int(version), nil
}

// Status returns every embedded migration, marked applied up to the current
// version.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	status := make([]Migration, len(m.migrations))
	for i, mig := range m.migrations {
		mig.Applied = mig.Version <= current
		status[i] = mig
	}
	return status, nil
}

// Pending returns the migrations MigrateUp would apply.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, mig := range status {
		if !mig.Applied {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// MigrateUp applies every pending migration.
func (m *Migrator) MigrateUp(ctx context.Context) (*MigrationResult, error) {
	return m.run(ctx, "migrating up", m.migrate.Up)
}

// MigrateDown rolls back the latest applied migration. It is a no-op on an
// empty store.
func (m *Migrator) MigrateDown(ctx context.Context) (*MigrationResult, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	if current == 0 {
		return &MigrationResult{}, nil
	}
	return m.run(ctx, "rolling back", func() error { return m.migrate.Steps(-1) })
}

// MigrateTo moves the schema up or down to target. Target 0 rolls back
// everything.
func (m *Migrator) MigrateTo(ctx context.Context, target int) (*MigrationResult, error) {
	if target == 0 {
		return m.run(ctx, "rolling back", m.migrate.Down)
	}
	if !m.known(target) {
		return nil, fmt.Errorf("migrating to %d: unknown migration version", target)
	}
	return m.run(ctx, fmt.Sprintf("migrating to %d", target), func() error {
		return m.migrate.Migrate(uint(target))
	})
}

// Force records version as applied and clean without running anything. It
// is the way out of a dirty state after the schema has been repaired by hand.
func (m *Migrator) Force(ctx context.Context, version int) error {
	if version != 0 && !m.known(version) {
		return fmt.Errorf("forcing %d: unknown migration version", version)
	}
	forced := version
	if version == 0 {
		forced = migratedb.NilVersion
	}
	if err := m.migrate.Force(forced); err != nil {
		return fmt.Errorf("forcing version %d: %w", version, err)
	}
	m.logger.Warn("schema version forced", "version", version)
	return nil
}

func (m *Migrator) known(version int) bool {
	for _, mig := range m.migrations {
		if mig.Version == version {
			return true
		}
	}
	return false
}

// run executes step and reports the versions it moved through. A cancelled
// ctx stops the run after the migration in flight.
func (m *Migrator) run(ctx context.Context, action string, step func() error) (*MigrationResult, error) {
	from, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			select {
			case m.migrate.GracefulStop <- true:
			default:
			}
		case <-done:
		}
	}()

	if err := step(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	to, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{FromVersion: from, ToVersion: to}
	for _, mig := range m.migrations {
		if mig.Version > min(from, to) && mig.Version <= max(from, to) {
			result.Applied = append(result.Applied, mig)
		}
	}
	if to < from {
		slices.Reverse(result.Applied)
	}
	return result, nil
}

// migrateLog routes golang-migrate's progress lines through slog.
type migrateLog struct {
	logger *slog.Logger
}

func (l migrateLog) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLog) Verbose() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}
