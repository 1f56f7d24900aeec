package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prudhvimanvith/Gourmet/internal/database"
	"github.com/prudhvimanvith/Gourmet/internal/models"
)

// OrderRepository handles sales order data access.
type OrderRepository struct {
	base
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{base{db: db}}
}

// CreateHeader inserts an order header in PENDING state.
func (r *OrderRepository) CreateHeader(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	query := r.q(`
		INSERT INTO orders (id, pos_order_ref, status, total_amount, created_at)
		VALUES (?, ?, ?, ?, ?)`)

	order.Status = models.OrderStatusPending
	order.TotalAmount = decimal.Zero
	order.CreatedAt = now()

	_, err := r.getExecer(tx).ExecContext(ctx, query,
		order.ID,
		nullableString(order.POSOrderRef),
		string(order.Status),
		order.TotalAmount,
		formatTime(order.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

// AddItem inserts an order line.
func (r *OrderRepository) AddItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error {
	query := r.q(`
		INSERT INTO order_items (id, order_id, item_id, quantity, price_at_sale)
		VALUES (?, ?, ?, ?, ?)`)

	_, err := r.getExecer(tx).ExecContext(ctx, query,
		item.ID, item.OrderID, item.ItemID, item.Quantity, item.PriceAtSale,
	)
	if err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}
	return nil
}

// Complete marks a pending order COMPLETED with its final total.
func (r *OrderRepository) Complete(ctx context.Context, tx *sql.Tx, id string, total decimal.Decimal, at time.Time) error {
	query := r.q(`
		UPDATE orders SET status = ?, total_amount = ?, completed_at = ?
		WHERE id = ? AND status = ?`)

	result, err := r.getExecer(tx).ExecContext(ctx, query,
		string(models.OrderStatusCompleted), total, formatTime(at), id, string(models.OrderStatusPending),
	)
	if err != nil {
		return fmt.Errorf("completing order: %w", err)
	}
	return requireAffected(result, "pending order", id)
}

// GetByID retrieves an order with its lines.
func (r *OrderRepository) GetByID(ctx context.Context, tx *sql.Tx, id string) (*models.Order, error) {
	query := r.q(`
		SELECT id, pos_order_ref, status, total_amount, created_at, completed_at
		FROM orders WHERE id = ?`)

	order, err := scanOrderFields(r.getQueryer(tx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFound("order", id)
	}
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// List retrieves order headers, newest first.
func (r *OrderRepository) List(ctx context.Context, page models.Pagination) (*models.OrderList, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting orders: %w", err)
	}

	query := r.q(`
		SELECT id, pos_order_ref, status, total_amount, created_at, completed_at
		FROM orders
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`)

	rows, err := r.db.QueryContext(ctx, query, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrderFields(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}

	return &models.OrderList{
		Orders:     orders,
		Total:      total,
		Page:       page.Page,
		TotalPages: page.TotalPages(total),
	}, nil
}

func (r *OrderRepository) listItems(ctx context.Context, tx *sql.Tx, orderID string) ([]models.OrderItem, error) {
	query := r.q(`
		SELECT oi.id, oi.order_id, oi.item_id, oi.quantity, oi.price_at_sale, i.name
		FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = ?
		ORDER BY oi.id`)

	rows, err := r.getQueryer(tx).QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var oi models.OrderItem
		if err := rows.Scan(&oi.ID, &oi.OrderID, &oi.ItemID, &oi.Quantity, &oi.PriceAtSale, &oi.ItemName); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, oi)
	}
	return items, rows.Err()
}

func scanOrderFields(row rowScanner) (*models.Order, error) {
	var order models.Order
	var ref, completedStr sql.NullString
	var status, createdStr string

	err := row.Scan(&order.ID, &ref, &status, &order.TotalAmount, &createdStr, &completedStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning order: %w", err)
	}

	if ref.Valid {
		order.POSOrderRef = ref.String
	}
	order.Status = models.OrderStatus(status)
	if order.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, fmt.Errorf("scanning order %s created_at: %w", order.ID, err)
	}
	if completedStr.Valid {
		t, err := parseTime(completedStr.String)
		if err != nil {
			return nil, fmt.Errorf("scanning order %s completed_at: %w", order.ID, err)
		}
		order.CompletedAt = &t
	}

	return &order, nil
}
