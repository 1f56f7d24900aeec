// Package testutil provides utilities for testing.
package testutil

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/prudhvimanvith/Gourmet/internal/config"
	"github.com/prudhvimanvith/Gourmet/internal/database"
)

// TestDB wraps a migrated test database.
type TestDB struct {
	*database.DB
}

// NewTestDB creates a new in-memory SQLite database with every migration
// applied. It is closed when the test ends.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := database.NewMigratedInMemory(context.Background())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	tdb := &TestDB{DB: db}
	t.Cleanup(func() { tdb.Close(t) })
	return tdb
}

// NewTestDBWithFile creates a migrated test database backed by a temporary
// file. Useful for debugging tests.
func NewTestDBWithFile(t *testing.T) *TestDB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath, &config.DatabaseConfig{Driver: config.DriverSQLite, Path: dbPath}, "")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	m, err := database.NewMigrator(db)
	if err != nil {
		t.Fatalf("failed to create migrator: %v", err)
	}
	if _, err := m.MigrateUp(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	tdb := &TestDB{DB: db}
	t.Cleanup(func() { tdb.Close(t) })
	return tdb
}

// Close closes the test database.
func (tdb *TestDB) Close(t *testing.T) {
	t.Helper()

	if err := tdb.DB.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}

// AssertRowCount asserts the row count for a table.
func (tdb *TestDB) AssertRowCount(t *testing.T, table string, expected int) {
	t.Helper()

	if got := tdb.RowCount(t, table); got != expected {
		t.Errorf("expected %d rows in %s, got %d", expected, table, got)
	}
}

// RowCount returns the number of rows in table.
func (tdb *TestDB) RowCount(t *testing.T, table string) int {
	t.Helper()

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if err := tdb.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return count
}

// Stock returns an item's current_stock.
func (tdb *TestDB) Stock(t *testing.T, itemID string) float64 {
	t.Helper()

	var stock float64
	if err := tdb.QueryRow("SELECT current_stock FROM items WHERE id = ?", itemID).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock of %s: %v", itemID, err)
	}
	return stock
}

// AssertStock asserts an item's current_stock within 1e-9.
func (tdb *TestDB) AssertStock(t *testing.T, itemID string, expected float64) {
	t.Helper()

	if got := tdb.Stock(t, itemID); math.Abs(got-expected) > 1e-9 {
		t.Errorf("expected stock %v for %s, got %v", expected, itemID, got)
	}
}

// AssertLedgerConsistent asserts that every item's stock equals the sum of
// its ledger rows.
func (tdb *TestDB) AssertLedgerConsistent(t *testing.T) {
	t.Helper()

	rows, err := tdb.Query(`
		SELECT i.name, i.current_stock, COALESCE(SUM(t.quantity_change), 0)
		FROM items i
		LEFT JOIN inventory_transactions t ON t.item_id = i.id
		GROUP BY i.id, i.name, i.current_stock`)
	if err != nil {
		t.Fatalf("failed to query ledger sums: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var stock, sum float64
		if err := rows.Scan(&name, &stock, &sum); err != nil {
			t.Fatalf("failed to scan ledger sum: %v", err)
		}
		if math.Abs(stock-sum) > 1e-9 {
			t.Errorf("item %s: current_stock %v != ledger sum %v", name, stock, sum)
		}
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("failed to iterate ledger sums: %v", err)
	}
}

// ExecSQL executes arbitrary SQL (useful for test setup).
func (tdb *TestDB) ExecSQL(t *testing.T, sql string, args ...any) {
	t.Helper()

	if _, err := tdb.Exec(sql, args...); err != nil {
		t.Fatalf("failed to execute SQL: %v\nSQL: %s", err, sql)
	}
}
