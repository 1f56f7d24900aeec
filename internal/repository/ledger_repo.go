package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/prudhvimanvith/Gourmet/internal/database"
	"github.com/prudhvimanvith/Gourmet/internal/models"
)

// LedgerRepository handles inventory transaction data access. Rows are
// only ever inserted.
type LedgerRepository struct {
	base
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{base{db: db}}
}

// ============================================================================
// TRANSACTIONS
// ============================================================================

// Insert appends a ledger row.
func (r *LedgerRepository) Insert(ctx context.Context, tx *sql.Tx, txn *models.InventoryTransaction) error {
	query := r.q(`
		INSERT INTO inventory_transactions (
			id, item_id, quantity_change, transaction_type, reference_id, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)

	txn.CreatedAt = now()

	_, err := r.getExecer(tx).ExecContext(ctx, query,
		txn.ID,
		txn.ItemID,
		txn.QuantityChange,
		string(txn.TransactionType),
		txn.ReferenceID,
		nullableString(txn.Note),
		formatTime(txn.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

// List retrieves ledger rows, newest first, with filtering and pagination.
func (r *LedgerRepository) List(ctx context.Context, filter models.TransactionFilter, page models.Pagination) (*models.TransactionList, error) {
	var conditions []string
	var args []any

	if filter.ItemID != "" {
		conditions = append(conditions, "t.item_id = ?")
		args = append(args, filter.ItemID)
	}
	if filter.Type != nil {
		conditions = append(conditions, "t.transaction_type = ?")
		args = append(args, string(*filter.Type))
	}
	if filter.ReferenceID != "" {
		conditions = append(conditions, "t.reference_id = ?")
		args = append(args, filter.ReferenceID)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := r.q(fmt.Sprintf("SELECT COUNT(*) FROM inventory_transactions t %s", whereClause))
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting transactions: %w", err)
	}

	// Get page
	query := r.q(fmt.Sprintf(`
		SELECT t.id, t.item_id, t.quantity_change, t.transaction_type, t.reference_id,
			t.note, t.created_at, i.name
		FROM inventory_transactions t
		JOIN items i ON i.id = t.item_id
		%s
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ? OFFSET ?`, whereClause))
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.InventoryTransaction
	for rows.Next() {
		txn, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return &models.TransactionList{
		Transactions: txns,
		Total:        total,
		Page:         page.Page,
		TotalPages:   page.TotalPages(total),
	}, nil
}

// ByReference returns every ledger row written under refID, oldest first.
func (r *LedgerRepository) ByReference(ctx context.Context, tx *sql.Tx, refID string) ([]*models.InventoryTransaction, error) {
	query := r.q(`
		SELECT t.id, t.item_id, t.quantity_change, t.transaction_type, t.reference_id,
			t.note, t.created_at, i.name
		FROM inventory_transactions t
		JOIN items i ON i.id = t.item_id
		WHERE t.reference_id = ?
		ORDER BY t.created_at, t.id`)

	rows, err := r.getQueryer(tx).QueryContext(ctx, query, refID)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.InventoryTransaction
	for rows.Next() {
		txn, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// Count returns the number of ledger rows.
func (r *LedgerRepository) Count(ctx context.Context, tx *sql.Tx) (int, error) {
	var n int
	if err := r.getQueryer(tx).QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory_transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}
	return n, nil
}

// Drift compares every item's current_stock with the sum of its ledger rows
// and returns those that differ by more than tolerance.
func (r *LedgerRepository) Drift(ctx context.Context, tolerance float64) ([]models.LedgerDrift, error) {
	query := r.q(`
		SELECT i.id, i.name, i.current_stock, COALESCE(SUM(t.quantity_change), 0)
		FROM items i
		LEFT JOIN inventory_transactions t ON t.item_id = i.id
		GROUP BY i.id, i.name, i.current_stock
		ORDER BY i.name`)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying ledger sums: %w", err)
	}
	defer rows.Close()

	var drifts []models.LedgerDrift
	for rows.Next() {
		var d models.LedgerDrift
		if err := rows.Scan(&d.ItemID, &d.ItemName, &d.CurrentStock, &d.LedgerSum); err != nil {
			return nil, fmt.Errorf("scanning ledger sum: %w", err)
		}
		diff := d.Difference()
		if diff > tolerance || diff < -tolerance {
			drifts = append(drifts, d)
		}
	}
	return drifts, rows.Err()
}

// ============================================================================
// PREP BATCHES
// ============================================================================

// InsertPrepBatch records a production run.
func (r *LedgerRepository) InsertPrepBatch(ctx context.Context, tx *sql.Tx, batch *models.PrepBatch) error {
	query := r.q(`
		INSERT INTO prep_batches (id, item_id, quantity, reference_id, created_at)
		VALUES (?, ?, ?, ?, ?)`)

	batch.CreatedAt = now()

	_, err := r.getExecer(tx).ExecContext(ctx, query,
		batch.ID, batch.ItemID, batch.Quantity, batch.ReferenceID, formatTime(batch.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting prep batch: %w", err)
	}
	return nil
}

// ListPrepBatches returns the most recent production runs for itemID, or
// for every item when itemID is empty.
func (r *LedgerRepository) ListPrepBatches(ctx context.Context, itemID string, limit int) ([]*models.PrepBatch, error) {
	query := `SELECT id, item_id, quantity, reference_id, created_at FROM prep_batches`
	var args []any
	if itemID != "" {
		query += ` WHERE item_id = ?`
		args = append(args, itemID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying prep batches: %w", err)
	}
	defer rows.Close()

	var batches []*models.PrepBatch
	for rows.Next() {
		var b models.PrepBatch
		var createdStr string
		if err := rows.Scan(&b.ID, &b.ItemID, &b.Quantity, &b.ReferenceID, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning prep batch: %w", err)
		}
		created, err := parseTime(createdStr)
		if err != nil {
			return nil, fmt.Errorf("scanning prep batch %s: %w", b.ID, err)
		}
		b.CreatedAt = created
		batches = append(batches, &b)
	}
	return batches, rows.Err()
}

func scanTransactionRow(rows *sql.Rows) (*models.InventoryTransaction, error) {
	var txn models.InventoryTransaction
	var typ, createdStr string
	var note sql.NullString

	err := rows.Scan(
		&txn.ID, &txn.ItemID, &txn.QuantityChange, &typ, &txn.ReferenceID,
		&note, &createdStr, &txn.ItemName,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning transaction: %w", err)
	}

	txn.TransactionType = models.TransactionType(typ)
	if note.Valid {
		txn.Note = note.String
	}
	if txn.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, fmt.Errorf("scanning transaction %s: %w", txn.ID, err)
	}

	return &txn, nil
}
