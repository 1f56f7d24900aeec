package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prudhvimanvith/Gourmet/internal/config"
)

// backupTimeout bounds one scheduled backup.
const backupTimeout = 5 * time.Minute

// ErrBackupUnsupported is returned by Backup on postgres stores.
var ErrBackupUnsupported = errors.New("backups are only managed for sqlite; use pg_dump for postgres")

// Backup writes a consistent copy of the sqlite store to the backup
// directory with VACUUM INTO and prunes copies past the retention period.
func (db *DB) Backup(ctx context.Context) (string, error) {
	if db.driver != config.DriverSQLite {
		return "", ErrBackupUnsupported
	}
	if db.backupDir == "" {
		return "", errors.New("backup directory not configured")
	}
	if err := os.MkdirAll(db.backupDir, 0750); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	if err := db.Checkpoint(ctx); err != nil {
		slog.Warn("checkpoint before backup failed", "error", err)
	}

	name := backupPrefix + time.Now().Format("20060102-150405.000") + ".db"
	path := filepath.Join(db.backupDir, name)
	// VACUUM INTO takes no bind parameters.
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	if _, err := db.ExecContext(ctx, "VACUUM INTO "+quoted); err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}
	slog.Info("database backup created", "path", path)

	if days := db.config.BackupRetentionDays; days > 0 {
		removed, err := pruneBackups(db.backupDir, time.Now().AddDate(0, 0, -days))
		if err != nil {
			slog.Warn("pruning backups", "error", err)
		}
		if removed > 0 {
			slog.Debug("pruned old backups", "removed", removed)
		}
	}
	return path, nil
}

// pruneBackups removes backups older than cutoff but always keeps the
// newest one, so a long idle period never leaves the store without a copy.
func pruneBackups(dir string, cutoff time.Time) (int, error) {
	candidates, err := backupCandidates(dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	for _, path := range candidates[min(1, len(candidates)):] {
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// startBackupScheduler runs Backup every BackupIntervalHours until Close.
func (db *DB) startBackupScheduler() {
	ctx, cancel := context.WithCancel(context.Background())
	db.stopBackups = cancel

	interval := time.Duration(db.config.BackupIntervalHours) * time.Hour
	db.backups.Add(1)
	go func() {
		defer db.backups.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				bctx, cancel := context.WithTimeout(ctx, backupTimeout)
				if _, err := db.Backup(bctx); err != nil {
					slog.Error("scheduled backup failed", "error", err)
				}
				cancel()
			case <-ctx.Done():
				return
			}
		}
	}()
}
