package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/notify"
	"github.com/prudhvimanvith/Gourmet/internal/util"
)

type orderRequest struct {
	Lines []models.OrderLine `validate:"required,min=1,dive"`
}

// ProcessOrder records a sale and deducts every line through the engine.
// The header is written PENDING, then completed with the total once all
// lines succeed; any failure rolls back the header, its lines and every
// debit. An empty orderID gets a generated UUID.
func (s *Service) ProcessOrder(ctx context.Context, orderID string, lines []models.OrderLine) (*models.Order, error) {
	if err := util.Validate(orderRequest{Lines: lines}); err != nil {
		return nil, err
	}
	for i, line := range lines {
		if math.IsInf(line.Qty, 0) {
			return nil, models.NewValidation(fmt.Sprintf("Lines[%d].Qty", i), "must be a finite number")
		}
	}
	if orderID == "" {
		orderID = util.NewUUID()
	}

	var order *models.Order
	var touched []string
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		order = &models.Order{
			ID:          orderID,
			POSOrderRef: s.refs.Next(util.PrefixPOS),
		}
		if err := s.orders.CreateHeader(ctx, tx, order); err != nil {
			return err
		}

		total := decimal.Zero
		for i, line := range lines {
			item, err := s.items.GetByID(ctx, tx, line.ItemID)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}

			oi := models.OrderItem{
				ID:          util.NewID(),
				OrderID:     order.ID,
				ItemID:      item.ID,
				Quantity:    line.Qty,
				PriceAtSale: item.Price(),
				ItemName:    item.Name,
			}
			if err := s.orders.AddItem(ctx, tx, &oi); err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			total = total.Add(oi.LineTotal())

			res, err := s.engine.Deduct(ctx, tx, item.ID, line.Qty, order.ID)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			touched = append(touched, res.ItemIDs()...)
			order.Items = append(order.Items, oi)
		}

		completedAt := time.Now().UTC()
		if err := s.orders.Complete(ctx, tx, order.ID, total, completedAt); err != nil {
			return err
		}
		order.Status = models.OrderStatusCompleted
		order.TotalAmount = total
		order.CompletedAt = &completedAt
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("processing order: %w", err)
	}

	s.logger.Info("order processed",
		"order_id", order.ID,
		"pos_order_ref", order.POSOrderRef,
		"lines", len(order.Items),
		"total", order.TotalAmount.String(),
	)
	s.afterCommit(ctx, notify.KeyOrderCompleted, notify.OrderCompleted{
		OrderID:     order.ID,
		POSOrderRef: order.POSOrderRef,
		TotalAmount: order.TotalAmount.String(),
		Lines:       len(order.Items),
		OccurredAt:  *order.CompletedAt,
	}, touched)
	return order, nil
}

// GetOrder retrieves an order with its lines.
func (s *Service) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.GetByID(ctx, nil, id)
}

// ListOrders lists order headers, newest first.
func (s *Service) ListOrders(ctx context.Context, page models.Pagination) (*models.OrderList, error) {
	return s.orders.List(ctx, page)
}
