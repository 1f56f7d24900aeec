package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// backupPrefix matches files written by DB.Backup.
const backupPrefix = "gourmet-"

// RecoveryOutcome reports how a startup check ended.
type RecoveryOutcome int

const (
	// RecoveryHealthy means the file passed its integrity check, possibly after a WAL checkpoint.
	RecoveryHealthy RecoveryOutcome = iota
	// RecoveryRestored means the file was replaced by the newest valid backup.
	RecoveryRestored
	// RecoveryFailed means the file is damaged and no backup could replace it.
	RecoveryFailed
)

func (r RecoveryOutcome) String() string {
	switch r {
	case RecoveryHealthy:
		return "healthy"
	case RecoveryRestored:
		return "restored_from_backup"
	case RecoveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RecoveryReport records each step taken against a store file.
type RecoveryReport struct {
	Outcome    RecoveryOutcome
	Path       string
	BackupUsed string
	Steps      []RecoveryStep
}

// RecoveryStep is a single check or repair attempt.
type RecoveryStep struct {
	Name      string
	Succeeded bool
	Message   string
	Duration  time.Duration
}

// Recover checks a SQLite store before it is opened. A damaged file gets a
// WAL checkpoint, then falls back to the newest backup that passes its own
// integrity check. The damaged file is kept beside the original with a
// ".corrupted.<stamp>" suffix. A missing file is healthy (first run).
func Recover(ctx context.Context, dbPath, backupDir string, logger *slog.Logger) (*RecoveryReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	report := &RecoveryReport{Path: dbPath}

	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		report.Outcome = RecoveryHealthy
		report.record("check_exists", func() (string, error) { return "first run", nil })
		return report, nil
	}

	if report.record("integrity_check", func() (string, error) { return checkIntegrity(ctx, dbPath) }) {
		report.Outcome = RecoveryHealthy
		return report, nil
	}
	logger.Warn("store integrity check failed", "path", dbPath, "detail", report.last().Message)

	if _, err := os.Stat(dbPath + "-wal"); err == nil {
		if report.record("wal_checkpoint", func() (string, error) { return checkpointWAL(ctx, dbPath) }) &&
			report.record("post_wal_integrity", func() (string, error) { return checkIntegrity(ctx, dbPath) }) {
			report.Outcome = RecoveryHealthy
			logger.Info("store recovered via WAL checkpoint", "path", dbPath)
			return report, nil
		}
	}

	if backupDir != "" {
		if report.record("restore_backup", func() (string, error) { return restoreNewestBackup(ctx, dbPath, backupDir, logger) }) {
			report.Outcome = RecoveryRestored
			report.BackupUsed = report.last().Message
			logger.Warn("store restored from backup", "path", dbPath, "backup", report.BackupUsed)
			return report, nil
		}
	}

	report.Outcome = RecoveryFailed
	logger.Error("store recovery failed", "path", dbPath, "steps", len(report.Steps))
	return report, fmt.Errorf("recovering %s: %s", dbPath, report.last().Message)
}

func (r *RecoveryReport) record(name string, fn func() (string, error)) bool {
	start := time.Now()
	msg, err := fn()
	step := RecoveryStep{Name: name, Succeeded: err == nil, Message: msg, Duration: time.Since(start)}
	if err != nil {
		step.Message = err.Error()
	}
	r.Steps = append(r.Steps, step)
	return step.Succeeded
}

func (r *RecoveryReport) last() RecoveryStep {
	if len(r.Steps) == 0 {
		return RecoveryStep{}
	}
	return r.Steps[len(r.Steps)-1]
}

func checkIntegrity(ctx context.Context, path string) (string, error) {
	db, err := sql.Open(sqliteDriverName, "file:"+path+"?mode=ro")
	if err != nil {
		return "", fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := integrityCheck(ctx, db); err != nil {
		return "", err
	}
	return "ok", nil
}

func checkpointWAL(ctx context.Context, path string) (string, error) {
	db, err := sql.Open(sqliteDriverName, sqliteDSN(path, nil))
	if err != nil {
		return "", fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(RESTART)"); err != nil {
		return "", fmt.Errorf("checkpointing WAL: %w", err)
	}
	return "checkpoint complete", nil
}

// backupCandidates lists backup files newest first.
func backupCandidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var found []candidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, ".db") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{path: filepath.Join(dir, name), mod: info.ModTime()})
	}
	slices.SortFunc(found, func(a, b candidate) int { return b.mod.Compare(a.mod) })

	paths := make([]string, len(found))
	for i, c := range found {
		paths[i] = c.path
	}
	return paths, nil
}

func restoreNewestBackup(ctx context.Context, dbPath, dir string, logger *slog.Logger) (string, error) {
	candidates, err := backupCandidates(dir)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", errors.New("no backup files found")
	}

	for _, backup := range candidates {
		if _, err := checkIntegrity(ctx, backup); err != nil {
			logger.Debug("skipping damaged backup", "path", backup, "error", err)
			continue
		}

		damaged := dbPath + ".corrupted." + time.Now().Format("20060102-150405")
		if err := moveFile(dbPath, damaged); err != nil {
			logger.Warn("could not preserve damaged store", "path", dbPath, "error", err)
		}
		_ = os.Remove(dbPath + "-wal")
		_ = os.Remove(dbPath + "-shm")

		if err := copyFile(backup, dbPath); err != nil {
			return "", fmt.Errorf("copying backup: %w", err)
		}
		return backup, nil
	}
	return "", errors.New("no valid backup found")
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return out.Sync()
}
