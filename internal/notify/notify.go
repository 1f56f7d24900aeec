// Package notify publishes inventory events after their transaction commits.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Routing keys for inventory events.
const (
	KeyStockLow       = "stock.low"
	KeyStockAdjusted  = "stock.adjusted"
	KeyOrderCompleted = "order.completed"
	KeyPrepRecorded   = "prep.recorded"
)

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// StockLow is raised when a stocked item is at or below its threshold.
type StockLow struct {
	ItemID       string    `json:"item_id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Unit         string    `json:"unit"`
	CurrentStock float64   `json:"current_stock"`
	MinThreshold float64   `json:"min_threshold"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// StockAdjusted is raised for manual adjustments, purchases and wastage.
type StockAdjusted struct {
	ItemID      string    `json:"item_id"`
	Delta       float64   `json:"delta"`
	Type        string    `json:"transaction_type"`
	ReferenceID string    `json:"reference_id"`
	Note        string    `json:"note,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// OrderCompleted is raised once an order and all its deductions commit.
type OrderCompleted struct {
	OrderID     string    `json:"order_id"`
	POSOrderRef string    `json:"pos_order_ref"`
	TotalAmount string    `json:"total_amount"`
	Lines       int       `json:"lines"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PrepRecorded is raised once a production batch commits.
type PrepRecorded struct {
	ItemID      string    `json:"item_id"`
	Name        string    `json:"name"`
	Quantity    float64   `json:"quantity"`
	ReferenceID string    `json:"reference_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }

// LogPublisher writes events to a structured logger.
type LogPublisher struct {
	Logger *slog.Logger
}

// NewLogPublisher returns a publisher that logs to logger, or to the
// default logger when nil.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{Logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	p.Logger.InfoContext(ctx, "inventory event", "routing_key", routingKey, "event", event)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
