// Package inventory records stock movements and explodes sales and
// production runs into ledger debits.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prudhvimanvith/Gourmet/internal/database"
	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/notify"
	"github.com/prudhvimanvith/Gourmet/internal/repository"
	"github.com/prudhvimanvith/Gourmet/internal/util"
)

// driftTolerance bounds float noise when comparing stock with ledger sums.
const driftTolerance = models.StockTolerance

// Service provides stock ledger, deduction, prep and order operations.
// Each exported operation runs in exactly one database transaction.
type Service struct {
	db        *database.DB
	items     *repository.ItemRepository
	recipes   *repository.RecipeRepository
	txns      *repository.LedgerRepository
	orders    *repository.OrderRepository
	ledger    *Ledger
	engine    *Engine
	refs      *util.RefGenerator
	publisher notify.Publisher
	logger    *slog.Logger
}

// NewService creates a new inventory service.
func NewService(db *database.DB, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "inventory")

	publisher := opts.Publisher
	if publisher == nil {
		publisher = notify.Nop{}
	}

	ledger := NewLedger(db, opts.StockFloor)
	return &Service{
		db:        db,
		items:     repository.NewItemRepository(db),
		recipes:   repository.NewRecipeRepository(db),
		txns:      repository.NewLedgerRepository(db),
		orders:    repository.NewOrderRepository(db),
		ledger:    ledger,
		engine:    NewEngine(db, ledger, opts.MissingRecipe, logger),
		refs:      util.NewRefGenerator(),
		publisher: publisher,
		logger:    logger,
	}
}

// Ledger returns the service's stock ledger.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// Engine returns the service's deduction engine.
func (s *Service) Engine() *Engine {
	return s.engine
}

// ============================================================================
// MANUAL MOVEMENTS
// ============================================================================

// AdjustStock applies a manual correction. Positive deltas are recorded as
// RESTOCK, negative ones as CORRECTION; reason is kept as the ledger note.
func (s *Service) AdjustStock(ctx context.Context, itemID string, delta float64, reason string) (*models.InventoryTransaction, error) {
	if err := required("item_id", itemID); err != nil {
		return nil, err
	}
	if err := validDelta("delta", delta); err != nil {
		return nil, err
	}

	typ := models.TransactionTypeRestock
	if delta < 0 {
		typ = models.TransactionTypeCorrection
	}

	entry := Entry{
		ItemID: itemID,
		Delta:  delta,
		Type:   typ,
		RefID:  s.refs.Next(util.PrefixAdjustment),
		Note:   reason,
	}

	txn, err := s.record(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("adjusting stock: %w", err)
	}

	s.logger.Info("stock adjusted", "item_id", itemID, "delta", delta, "type", typ, "reference_id", txn.ReferenceID)
	return txn, nil
}

// RecordPurchase credits qty units received from a supplier. An empty
// refID gets a generated PUR reference.
func (s *Service) RecordPurchase(ctx context.Context, itemID string, qty float64, refID string) (*models.InventoryTransaction, error) {
	if err := required("item_id", itemID); err != nil {
		return nil, err
	}
	if err := validQuantity("quantity", qty); err != nil {
		return nil, err
	}
	if refID == "" {
		refID = s.refs.Next(util.PrefixPurchase)
	}

	txn, err := s.record(ctx, Entry{
		ItemID: itemID,
		Delta:  qty,
		Type:   models.TransactionTypePurchase,
		RefID:  refID,
	})
	if err != nil {
		return nil, fmt.Errorf("recording purchase: %w", err)
	}

	s.logger.Info("purchase recorded", "item_id", itemID, "quantity", qty, "reference_id", refID)
	return txn, nil
}

// RecordWastage writes off qty units of itemID. Composite items are
// exploded like a sale, with every leaf debit typed WASTAGE.
func (s *Service) RecordWastage(ctx context.Context, itemID string, qty float64, reason string) (*WastageResult, error) {
	if err := required("item_id", itemID); err != nil {
		return nil, err
	}
	if err := validQuantity("quantity", qty); err != nil {
		return nil, err
	}

	result := &WastageResult{ReferenceID: s.refs.Next(util.PrefixWastage)}
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		consumed, err := s.engine.deduct(ctx, tx, deduction{
			itemID: itemID,
			qty:    qty,
			refID:  result.ReferenceID,
			typ:    models.TransactionTypeWastage,
			note:   reason,
		})
		if err != nil {
			return err
		}
		result.Consumed = consumed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recording wastage: %w", err)
	}

	s.logger.Info("wastage recorded", "item_id", itemID, "quantity", qty, "reference_id", result.ReferenceID)
	s.afterCommit(ctx, notify.KeyStockAdjusted, notify.StockAdjusted{
		ItemID:      itemID,
		Delta:       -qty,
		Type:        string(models.TransactionTypeWastage),
		ReferenceID: result.ReferenceID,
		Note:        reason,
		OccurredAt:  time.Now().UTC(),
	}, result.Consumed.ItemIDs())
	return result, nil
}

func (s *Service) record(ctx context.Context, entry Entry) (*models.InventoryTransaction, error) {
	var txn *models.InventoryTransaction
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		txn, err = s.ledger.RecordTransaction(ctx, tx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, notify.KeyStockAdjusted, notify.StockAdjusted{
		ItemID:      entry.ItemID,
		Delta:       entry.Delta,
		Type:        string(entry.Type),
		ReferenceID: entry.RefID,
		Note:        entry.Note,
		OccurredAt:  txn.CreatedAt,
	}, []string{entry.ItemID})
	return txn, nil
}

// ============================================================================
// QUERIES
// ============================================================================

// VerifyLedger returns every item whose current stock disagrees with the
// sum of its ledger rows.
func (s *Service) VerifyLedger(ctx context.Context) ([]models.LedgerDrift, error) {
	drifts, err := s.txns.Drift(ctx, driftTolerance)
	if err != nil {
		return nil, fmt.Errorf("verifying ledger: %w", err)
	}
	return drifts, nil
}

// History lists ledger rows, newest first.
func (s *Service) History(ctx context.Context, filter models.TransactionFilter, page models.Pagination) (*models.TransactionList, error) {
	return s.txns.List(ctx, filter, page)
}

// Transactions returns every ledger row written under refID.
func (s *Service) Transactions(ctx context.Context, refID string) ([]*models.InventoryTransaction, error) {
	return s.txns.ByReference(ctx, nil, refID)
}

// PrepBatches returns recent production runs, optionally for one item.
func (s *Service) PrepBatches(ctx context.Context, itemID string, limit int) ([]*models.PrepBatch, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.txns.ListPrepBatches(ctx, itemID, limit)
}

// LowStock returns stocked items at or below their threshold.
func (s *Service) LowStock(ctx context.Context) ([]*models.Item, error) {
	return s.items.ListLowStock(ctx, nil)
}

// ============================================================================
// EVENTS
// ============================================================================

// afterCommit publishes event and a low-stock alert for every touched item
// now at or below its threshold. Failures are logged only; the operation
// has already committed.
func (s *Service) afterCommit(ctx context.Context, routingKey string, event any, touched []string) {
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		s.logger.Warn("publishing event failed", "routing_key", routingKey, "error", err)
	}
	if len(touched) == 0 {
		return
	}

	items, err := s.items.ListByIDs(ctx, nil, touched)
	if err != nil {
		s.logger.Warn("loading touched items failed", "error", err)
		return
	}

	for _, item := range items {
		if !item.IsLowStock() {
			continue
		}
		alert := notify.StockLow{
			ItemID:       item.ID,
			Name:         item.Name,
			Type:         string(item.Type),
			Unit:         item.Unit,
			CurrentStock: item.CurrentStock,
			MinThreshold: item.MinThreshold,
			OccurredAt:   time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, notify.KeyStockLow, alert); err != nil {
			s.logger.Warn("publishing stock alert failed", "item_id", item.ID, "error", err)
		}
	}
}
