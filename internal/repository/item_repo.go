package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/prudhvimanvith/Gourmet/internal/database"
	"github.com/prudhvimanvith/Gourmet/internal/models"
)

// ItemRepository handles catalog data access.
type ItemRepository struct {
	base
}

// NewItemRepository creates a new item repository.
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{base{db: db}}
}

const itemColumns = `id, name, sku, type, unit, current_stock, min_threshold,
	cost_per_unit, selling_price, is_auto_explode, created_at, updated_at`

// Create inserts a new item. Stock starts at zero; opening stock is booked
// through the ledger.
func (r *ItemRepository) Create(ctx context.Context, tx *sql.Tx, item *models.Item) error {
	query := r.q(`
		INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	ts := now()
	item.CreatedAt = ts
	item.UpdatedAt = ts
	item.CurrentStock = 0

	_, err := r.getExecer(tx).ExecContext(ctx, query,
		item.ID,
		item.Name,
		nullableStringPtr(item.SKU),
		string(item.Type),
		item.Unit,
		item.CurrentStock,
		item.MinThreshold,
		item.CostPerUnit,
		item.SellingPrice,
		boolToInt(item.IsAutoExplode),
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}
	return nil
}

// GetByID retrieves an item by ID.
func (r *ItemRepository) GetByID(ctx context.Context, tx *sql.Tx, id string) (*models.Item, error) {
	query := r.q(`SELECT ` + itemColumns + ` FROM items WHERE id = ?`)
	return r.scanItem(r.getQueryer(tx).QueryRowContext(ctx, query, id), id)
}

// GetBySKU retrieves an item by SKU.
func (r *ItemRepository) GetBySKU(ctx context.Context, tx *sql.Tx, sku string) (*models.Item, error) {
	query := r.q(`SELECT ` + itemColumns + ` FROM items WHERE sku = ?`)
	return r.scanItem(r.getQueryer(tx).QueryRowContext(ctx, query, sku), sku)
}

// GetByName retrieves the first item with the given name.
func (r *ItemRepository) GetByName(ctx context.Context, tx *sql.Tx, name string) (*models.Item, error) {
	query := r.q(`SELECT ` + itemColumns + ` FROM items WHERE name = ? ORDER BY created_at LIMIT 1`)
	return r.scanItem(r.getQueryer(tx).QueryRowContext(ctx, query, name), name)
}

// Update writes the descriptive and pricing fields of an item. Stock and
// cost are left alone; they change through ApplyStockDelta and UpdateCost.
func (r *ItemRepository) Update(ctx context.Context, tx *sql.Tx, item *models.Item) error {
	query := r.q(`
		UPDATE items SET
			name = ?, sku = ?, type = ?, unit = ?, min_threshold = ?,
			selling_price = ?, is_auto_explode = ?, updated_at = ?
		WHERE id = ?`)

	item.UpdatedAt = now()

	result, err := r.getExecer(tx).ExecContext(ctx, query,
		item.Name,
		nullableStringPtr(item.SKU),
		string(item.Type),
		item.Unit,
		item.MinThreshold,
		item.SellingPrice,
		boolToInt(item.IsAutoExplode),
		formatTime(item.UpdatedAt),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireAffected(result, "item", item.ID)
}

// UpdateCost replaces an item's cost_per_unit.
func (r *ItemRepository) UpdateCost(ctx context.Context, tx *sql.Tx, id string, cost decimal.Decimal) error {
	query := r.q(`UPDATE items SET cost_per_unit = ?, updated_at = ? WHERE id = ?`)

	result, err := r.getExecer(tx).ExecContext(ctx, query, cost, formatTime(now()), id)
	if err != nil {
		return fmt.Errorf("updating item cost: %w", err)
	}
	return requireAffected(result, "item", id)
}

// ApplyStockDelta adds delta to current_stock as a relative update. When
// floor is set the update only applies if the result stays at or above
// zero, within models.StockTolerance. It reports whether a row was changed.
func (r *ItemRepository) ApplyStockDelta(ctx context.Context, tx *sql.Tx, id string, delta float64, floor bool) (bool, error) {
	query := `UPDATE items SET current_stock = current_stock + ?, updated_at = ? WHERE id = ?`
	args := []any{delta, formatTime(now()), id}
	if floor && delta < 0 {
		query += ` AND current_stock + ? >= ?`
		args = append(args, delta, -models.StockTolerance)
	}

	result, err := r.getExecer(tx).ExecContext(ctx, r.q(query), args...)
	if err != nil {
		return false, fmt.Errorf("updating stock: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}

// Exists reports whether an item with id exists.
func (r *ItemRepository) Exists(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var n int
	err := r.getQueryer(tx).QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM items WHERE id = ?`), id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking item: %w", err)
	}
	return n > 0, nil
}

// Delete removes an item. Fails while ledger rows or recipes reference it.
func (r *ItemRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	result, err := r.getExecer(tx).ExecContext(ctx, r.q(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return requireAffected(result, "item", id)
}

// List retrieves items with filtering and pagination.
func (r *ItemRepository) List(ctx context.Context, filter models.ItemFilter, page models.Pagination) (*models.ItemList, error) {
	var conditions []string
	var args []any

	if filter.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, string(*filter.Type))
	}
	if filter.Search != "" {
		conditions = append(conditions, "(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)")
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, pattern, pattern)
	}
	if filter.LowStock {
		conditions = append(conditions, "current_stock <= min_threshold AND type IN ('RAW_MATERIAL', 'INTERMEDIATE')")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := r.q(fmt.Sprintf("SELECT COUNT(*) FROM items %s", whereClause))
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}

	// Get page
	query := r.q(fmt.Sprintf(`
		SELECT %s FROM items
		%s
		ORDER BY type, name
		LIMIT ? OFFSET ?`, itemColumns, whereClause))
	args = append(args, page.Limit(), page.Offset())

	items, err := r.queryItems(ctx, nil, query, args...)
	if err != nil {
		return nil, err
	}

	return &models.ItemList{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		TotalPages: page.TotalPages(total),
	}, nil
}

// ListLowStock returns raw materials and intermediates at or below their threshold.
func (r *ItemRepository) ListLowStock(ctx context.Context, tx *sql.Tx) ([]*models.Item, error) {
	query := `
		SELECT ` + itemColumns + ` FROM items
		WHERE current_stock <= min_threshold
			AND type IN ('RAW_MATERIAL', 'INTERMEDIATE')
		ORDER BY current_stock - min_threshold, name`
	return r.queryItems(ctx, tx, query)
}

// ListByIDs returns the items with the given ids, in no particular order.
func (r *ItemRepository) ListByIDs(ctx context.Context, tx *sql.Tx, ids []string) ([]*models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := r.q(`SELECT ` + itemColumns + ` FROM items WHERE id IN (` + placeholders + `)`)
	return r.queryItems(ctx, tx, query, args...)
}

func (r *ItemRepository) queryItems(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]*models.Item, error) {
	rows, err := r.getQueryer(tx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItemFields(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ItemRepository) scanItem(row *sql.Row, key string) (*models.Item, error) {
	item, err := scanItemFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFound("item", key)
	}
	return item, err
}

func scanItemFields(row rowScanner) (*models.Item, error) {
	var item models.Item
	var sku sql.NullString
	var typ string
	var autoExplode int
	var createdStr, updatedStr string

	err := row.Scan(
		&item.ID, &item.Name, &sku, &typ, &item.Unit, &item.CurrentStock, &item.MinThreshold,
		&item.CostPerUnit, &item.SellingPrice, &autoExplode, &createdStr, &updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning item: %w", err)
	}

	if sku.Valid {
		item.SKU = &sku.String
	}
	item.Type = models.ItemType(typ)
	item.IsAutoExplode = autoExplode == 1
	if item.CreatedAt, item.UpdatedAt, err = parseStamps(createdStr, updatedStr); err != nil {
		return nil, fmt.Errorf("scanning item %s: %w", item.ID, err)
	}

	return &item, nil
}

func requireAffected(result sql.Result, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return models.NewNotFound(entity, id)
	}
	return nil
}
