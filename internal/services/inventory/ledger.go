package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prudhvimanvith/Gourmet/internal/config"
	"github.com/prudhvimanvith/Gourmet/internal/database"
	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/repository"
	"github.com/prudhvimanvith/Gourmet/internal/util"
)

// ErrNoTransaction is returned when a ledger write is attempted outside an
// open transaction.
var ErrNoTransaction = errors.New("ledger writes require an open transaction")

// Ledger is the only writer of current_stock. Every change is a relative
// update of the item row plus one appended ledger row, both in the
// caller's transaction.
type Ledger struct {
	items *repository.ItemRepository
	txns  *repository.LedgerRepository
	floor config.StockFloorPolicy
}

// NewLedger creates a ledger over db with the given stock floor policy.
func NewLedger(db *database.DB, floor config.StockFloorPolicy) *Ledger {
	if floor == "" {
		floor = config.StockFloorAllow
	}
	return &Ledger{
		items: repository.NewItemRepository(db),
		txns:  repository.NewLedgerRepository(db),
		floor: floor,
	}
}

// RecordTransaction applies e.Delta to the item and appends the ledger row.
func (l *Ledger) RecordTransaction(ctx context.Context, tx *sql.Tx, e Entry) (*models.InventoryTransaction, error) {
	if tx == nil {
		return nil, ErrNoTransaction
	}
	if err := required("item_id", e.ItemID); err != nil {
		return nil, err
	}
	if err := validDelta("delta", e.Delta); err != nil {
		return nil, err
	}
	if !e.Type.Valid() {
		return nil, models.NewValidation("transaction_type", fmt.Sprintf("unknown type %q", e.Type))
	}
	if err := required("reference_id", e.RefID); err != nil {
		return nil, err
	}

	applied, err := l.items.ApplyStockDelta(ctx, tx, e.ItemID, e.Delta, l.floor == config.StockFloorReject)
	if err != nil {
		return nil, err
	}
	if !applied {
		exists, err := l.items.Exists(ctx, tx, e.ItemID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, models.NewNotFound("item", e.ItemID)
		}
		return nil, &models.InsufficientStockError{ItemID: e.ItemID, Requested: -e.Delta}
	}

	txn := &models.InventoryTransaction{
		ID:              util.NewID(),
		ItemID:          e.ItemID,
		QuantityChange:  e.Delta,
		TransactionType: e.Type,
		ReferenceID:     e.RefID,
		Note:            e.Note,
	}
	if err := l.txns.Insert(ctx, tx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}
