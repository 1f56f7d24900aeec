package database

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prudhvimanvith/Gourmet/internal/config"
)

func TestDB_Rebind(t *testing.T) {
	q := "UPDATE items SET current_stock = current_stock + ? WHERE id = ?"

	sqlite := newDB(nil, config.DriverSQLite, "", &config.DatabaseConfig{}, "")
	if got := sqlite.Rebind(q); got != q {
		t.Errorf("sqlite Rebind() = %q, want unchanged", got)
	}

	pg := newDB(nil, config.DriverPostgres, "", &config.DatabaseConfig{}, "")
	want := "UPDATE items SET current_stock = current_stock + $1 WHERE id = $2"
	if got := pg.Rebind(q); got != want {
		t.Errorf("postgres Rebind() = %q, want %q", got, want)
	}
}

func TestDB_WithTransaction(t *testing.T) {
	ctx := context.Background()
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE t (v INTEGER)"); err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("Commit on success", func(t *testing.T) {
		err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (1)")
			return err
		})
		if err != nil {
			t.Fatalf("WithTransaction: %v", err)
		}
		assertCount(t, db, 1)
	})

	t.Run("Rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (2)"); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithTransaction error = %v, want boom", err)
		}
		assertCount(t, db, 1)
	})

	t.Run("Rollback on panic", func(t *testing.T) {
		func() {
			defer func() { _ = recover() }()
			_ = db.WithTransaction(ctx, func(tx *sql.Tx) error {
				_, _ = tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (3)")
				panic("kitchen fire")
			})
		}()
		assertCount(t, db, 1)
	})
}

func TestDB_ClosedRejectsTransactions(t *testing.T) {
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !db.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if _, err := db.BeginTx(context.Background(), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("BeginTx on closed database = %v, want ErrClosed", err)
	}
	if err := db.HealthCheck(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("HealthCheck on closed database = %v, want ErrClosed", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func assertCount(t *testing.T, db *DB, want int) {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM t").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != want {
		t.Errorf("row count = %d, want %d", n, want)
	}
}

func TestSqliteDSN(t *testing.T) {
	dsn := sqliteDSN("/var/lib/gourmet.db", []string{"journal_mode(WAL)", "foreign_keys(1)"})

	path, rawQuery, ok := strings.Cut(dsn, "?")
	if !ok || path != "file:/var/lib/gourmet.db" {
		t.Fatalf("dsn = %q", dsn)
	}
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if got := q["_pragma"]; len(got) != 2 || got[0] != "journal_mode(WAL)" || got[1] != "foreign_keys(1)" {
		t.Errorf("_pragma = %v, want pragmas in order", got)
	}
	if q.Get("_txlock") != "immediate" {
		t.Errorf("_txlock = %q, want immediate", q.Get("_txlock"))
	}
}

func TestOpen_FileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kitchen", "gourmet.db")

	db, err := Open(path, &config.DatabaseConfig{}, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var mode string
	var fk int
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil || mode != "wal" {
		t.Errorf("journal_mode = %q, %v; want wal", mode, err)
	}
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil || fk != 1 {
		t.Errorf("foreign_keys = %d, %v; want 1", fk, err)
	}

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Path != path || stats.PageSize != 4096 || stats.PageCount < 1 || stats.JournalMode != "wal" {
		t.Errorf("GetStats = %+v", stats)
	}
	if stats.SizeBytes == 0 {
		t.Error("expected a non-empty store file")
	}
}

func TestDB_BackupUnsupportedOnPostgres(t *testing.T) {
	pg := newDB(nil, config.DriverPostgres, "", &config.DatabaseConfig{}, t.TempDir())
	if _, err := pg.Backup(context.Background()); !errors.Is(err, ErrBackupUnsupported) {
		t.Errorf("Backup error = %v, want ErrBackupUnsupported", err)
	}

	stats, err := pg.GetStats(context.Background())
	if err != nil || stats.PageSize != 0 {
		t.Errorf("GetStats = %+v, %v; want empty stats", stats, err)
	}
}

func TestPruneBackups_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	names := []string{"gourmet-20260101-000000.db", "gourmet-20260102-000000.db", "gourmet-20260103-000000.db"}
	for i, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			t.Fatalf("writing %s: %v", p, err)
		}
		// Oldest first: 30, 20 and 10 days ago.
		mod := time.Now().AddDate(0, 0, -30+10*i)
		if err := os.Chtimes(p, mod, mod); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	t.Run("Older than cutoff removed", func(t *testing.T) {
		removed, err := pruneBackups(dir, time.Now().AddDate(0, 0, -15))
		if err != nil {
			t.Fatalf("pruneBackups: %v", err)
		}
		if removed != 2 {
			t.Errorf("removed = %d, want 2", removed)
		}
	})

	t.Run("Newest survives any cutoff", func(t *testing.T) {
		removed, err := pruneBackups(dir, time.Now())
		if err != nil {
			t.Fatalf("pruneBackups: %v", err)
		}
		if removed != 0 {
			t.Errorf("removed = %d, want 0", removed)
		}
		if _, err := os.Stat(filepath.Join(dir, names[2])); err != nil {
			t.Errorf("newest backup gone: %v", err)
		}
	})
}
