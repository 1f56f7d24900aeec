package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prudhvimanvith/Gourmet/internal/config"
)

func TestRecover(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing file is a first run", func(t *testing.T) {
		report, err := Recover(ctx, filepath.Join(t.TempDir(), "gourmet.db"), "", nil)
		if err != nil {
			t.Fatalf("Recover: %v", err)
		}
		if report.Outcome != RecoveryHealthy {
			t.Errorf("Outcome = %s, want healthy", report.Outcome)
		}
	})

	t.Run("Healthy store passes", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "gourmet.db")
		writeStore(t, path, "")

		report, err := Recover(ctx, path, dir, nil)
		if err != nil {
			t.Fatalf("Recover: %v", err)
		}
		if report.Outcome != RecoveryHealthy {
			t.Errorf("Outcome = %s, want healthy", report.Outcome)
		}
		if len(report.Steps) != 1 || report.Steps[0].Name != "integrity_check" {
			t.Errorf("Steps = %+v, want a single integrity_check", report.Steps)
		}
	})

	t.Run("Damaged store is restored from newest backup", func(t *testing.T) {
		dir := t.TempDir()
		backups := filepath.Join(dir, "backups")
		path := filepath.Join(dir, "gourmet.db")

		writeStore(t, path, backups)
		db, err := Open(path, &config.DatabaseConfig{}, backups)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if _, err := db.Exec("CREATE TABLE marker (v INTEGER)"); err != nil {
			t.Fatalf("create marker: %v", err)
		}
		backup, err := db.Backup(ctx)
		if err != nil {
			t.Fatalf("Backup: %v", err)
		}
		db.Close()

		if err := os.WriteFile(path, []byte("not a database"), 0o600); err != nil {
			t.Fatalf("corrupting store: %v", err)
		}

		report, err := Recover(ctx, path, backups, nil)
		if err != nil {
			t.Fatalf("Recover: %v", err)
		}
		if report.Outcome != RecoveryRestored {
			t.Fatalf("Outcome = %s, want restored", report.Outcome)
		}
		if report.BackupUsed != backup {
			t.Errorf("BackupUsed = %q, want %q", report.BackupUsed, backup)
		}

		restored, err := Open(path, &config.DatabaseConfig{}, "")
		if err != nil {
			t.Fatalf("reopening: %v", err)
		}
		defer restored.Close()
		var n int
		if err := restored.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name = 'marker'").Scan(&n); err != nil {
			t.Fatalf("query: %v", err)
		}
		if n != 1 {
			t.Error("restored store is missing the marker table")
		}
	})

	t.Run("Damaged store without backups fails", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "gourmet.db")
		if err := os.WriteFile(path, []byte("not a database"), 0o600); err != nil {
			t.Fatalf("writing: %v", err)
		}

		report, err := Recover(ctx, path, dir, nil)
		if err == nil {
			t.Fatal("Recover succeeded on a damaged store with no backups")
		}
		if report.Outcome != RecoveryFailed {
			t.Errorf("Outcome = %s, want failed", report.Outcome)
		}
	})
}

func TestBackupCandidates_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "gourmet-20260101-000000.db")
	recent := filepath.Join(dir, "gourmet-20260201-000000.db")
	for _, p := range []string{old, recent, filepath.Join(dir, "other.db"), filepath.Join(dir, "gourmet-notes.txt")} {
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			t.Fatalf("writing %s: %v", p, err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	got, err := backupCandidates(dir)
	if err != nil {
		t.Fatalf("backupCandidates: %v", err)
	}
	if len(got) != 2 || got[0] != recent || got[1] != old {
		t.Errorf("backupCandidates = %v, want [%s %s]", got, recent, old)
	}
}

func writeStore(t *testing.T, path, backupDir string) {
	t.Helper()
	db, err := Open(path, &config.DatabaseConfig{}, backupDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS canary (v INTEGER)"); err != nil {
		t.Fatalf("create canary: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
