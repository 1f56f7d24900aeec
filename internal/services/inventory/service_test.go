package inventory

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhvimanvith/Gourmet/internal/config"
	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/notify"
	"github.com/prudhvimanvith/Gourmet/internal/testutil"
)

func setup(t *testing.T, opts Options) (*Service, *testutil.TestDB, *recordingPublisher) {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	pub := &recordingPublisher{}
	if opts.Publisher == nil {
		opts.Publisher = pub
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return NewService(tdb.DB, opts), tdb, pub
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()
	svc, tdb, pub := setup(t, Options{})
	k := testutil.SeedPizzaKitchen(t, tdb, false)

	t.Run("positive delta is a restock", func(t *testing.T) {
		txn, err := svc.AdjustStock(ctx, k.Flour, 5, "delivery counted")
		require.NoError(t, err)

		assert.Equal(t, models.TransactionTypeRestock, txn.TransactionType)
		assert.True(t, strings.HasPrefix(txn.ReferenceID, "ADJ-"), txn.ReferenceID)
		assert.Equal(t, "delivery counted", txn.Note)
		tdb.AssertStock(t, k.Flour, 105)
	})

	t.Run("negative delta is a correction", func(t *testing.T) {
		txn, err := svc.AdjustStock(ctx, k.Flour, -7.5, "stocktake")
		require.NoError(t, err)

		assert.Equal(t, models.TransactionTypeCorrection, txn.TransactionType)
		tdb.AssertStock(t, k.Flour, 97.5)
	})

	t.Run("zero delta rejected", func(t *testing.T) {
		before := tdb.RowCount(t, "inventory_transactions")
		_, err := svc.AdjustStock(ctx, k.Flour, 0, "")
		assert.ErrorIs(t, err, models.ErrValidation)
		tdb.AssertRowCount(t, "inventory_transactions", before)
	})

	t.Run("unknown item", func(t *testing.T) {
		before := tdb.RowCount(t, "inventory_transactions")
		_, err := svc.AdjustStock(ctx, "missing", 1, "")
		assert.ErrorIs(t, err, models.ErrNotFound)
		tdb.AssertRowCount(t, "inventory_transactions", before)
	})

	t.Run("publishes adjustment", func(t *testing.T) {
		pub.Reset()
		_, err := svc.AdjustStock(ctx, k.Cheese, 1, "")
		require.NoError(t, err)
		assert.Equal(t, []string{notify.KeyStockAdjusted}, pub.Keys())
	})

	tdb.AssertLedgerConsistent(t)
}

func TestRecordPurchase(t *testing.T) {
	ctx := context.Background()
	svc, tdb, _ := setup(t, Options{})
	k := testutil.SeedPizzaKitchen(t, tdb, false)

	txn, err := svc.RecordPurchase(ctx, k.Tomato, 20, "INV-2291")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypePurchase, txn.TransactionType)
	assert.Equal(t, "INV-2291", txn.ReferenceID)
	tdb.AssertStock(t, k.Tomato, 120)

	txn, err = svc.RecordPurchase(ctx, k.Tomato, 1, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(txn.ReferenceID, "PUR-"), txn.ReferenceID)

	_, err = svc.RecordPurchase(ctx, k.Tomato, -1, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	tdb.AssertLedgerConsistent(t)
}

func TestRecordWastage(t *testing.T) {
	ctx := context.Background()
	svc, tdb, _ := setup(t, Options{})
	k := testutil.SeedPizzaKitchen(t, tdb, false)

	t.Run("raw material", func(t *testing.T) {
		res, err := svc.RecordWastage(ctx, k.Tomato, 2, "dropped crate")
		require.NoError(t, err)
		tdb.AssertStock(t, k.Tomato, 98)

		rows, err := svc.Transactions(ctx, res.ReferenceID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, models.TransactionTypeWastage, rows[0].TransactionType)
		assert.Equal(t, "dropped crate", rows[0].Note)
		assert.InDelta(t, -2, rows[0].QuantityChange, 1e-9)
	})

	t.Run("composite explodes", func(t *testing.T) {
		res, err := svc.RecordWastage(ctx, k.Margherita, 1, "burnt")
		require.NoError(t, err)
		require.Len(t, res.Consumed.Debits, 5)

		rows, err := svc.Transactions(ctx, res.ReferenceID)
		require.NoError(t, err)
		for _, row := range rows {
			assert.Equal(t, models.TransactionTypeWastage, row.TransactionType)
		}
		tdb.AssertStock(t, k.Cheese, 99.85)
	})

	tdb.AssertLedgerConsistent(t)
}

func TestVerifyLedger(t *testing.T) {
	ctx := context.Background()
	svc, tdb, _ := setup(t, Options{})
	k := testutil.SeedPizzaKitchen(t, tdb, false)

	_, err := svc.ProcessOrder(ctx, "", []models.OrderLine{{ItemID: k.Margherita, Qty: 3}})
	require.NoError(t, err)

	drifts, err := svc.VerifyLedger(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	tdb.ExecSQL(t, `UPDATE items SET current_stock = current_stock + 1 WHERE id = ?`, k.Flour)

	drifts, err = svc.VerifyLedger(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, k.Flour, drifts[0].ItemID)
	assert.InDelta(t, 1, drifts[0].Difference(), 1e-9)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	svc, tdb, _ := setup(t, Options{})
	k := testutil.SeedPizzaKitchen(t, tdb, false)

	_, err := svc.AdjustStock(ctx, k.Flour, 2, "")
	require.NoError(t, err)

	list, err := svc.History(ctx, models.TransactionFilter{ItemID: k.Flour}, models.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, models.TransactionTypeRestock, list.Transactions[0].TransactionType)
	assert.Equal(t, "Flour", list.Transactions[0].ItemName)
}

func TestLedgerRequiresTransaction(t *testing.T) {
	svc, tdb, _ := setup(t, Options{})
	k := testutil.SeedPizzaKitchen(t, tdb, false)

	_, err := svc.Ledger().RecordTransaction(context.Background(), nil, Entry{
		ItemID: k.Flour, Delta: 1, Type: models.TransactionTypeRestock, RefID: "X",
	})
	assert.ErrorIs(t, err, ErrNoTransaction)
}

func TestLedgerValidation(t *testing.T) {
	ctx := context.Background()
	svc, tdb, _ := setup(t, Options{})
	k := testutil.SeedPizzaKitchen(t, tdb, false)

	tests := []struct {
		name  string
		entry Entry
	}{
		{"missing item", Entry{Delta: 1, Type: models.TransactionTypeRestock, RefID: "X"}},
		{"zero delta", Entry{ItemID: k.Flour, Type: models.TransactionTypeRestock, RefID: "X"}},
		{"unknown type", Entry{ItemID: k.Flour, Delta: 1, Type: "GIFT", RefID: "X"}},
		{"missing reference", Entry{ItemID: k.Flour, Delta: 1, Type: models.TransactionTypeRestock}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tdb.WithTransaction(ctx, func(tx *sql.Tx) error {
				_, err := svc.Ledger().RecordTransaction(ctx, tx, tt.entry)
				return err
			})
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
	tdb.AssertStock(t, k.Flour, 100)
}

func TestPublishFailureKeepsCommit(t *testing.T) {
	ctx := context.Background()
	svc, tdb, _ := setup(t, Options{Publisher: failingPublisher{}})
	k := testutil.SeedPizzaKitchen(t, tdb, false)

	_, err := svc.AdjustStock(ctx, k.Flour, 1, "")
	require.NoError(t, err)
	tdb.AssertStock(t, k.Flour, 101)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.EngineConfig{
		MissingRecipe: config.MissingRecipeStrict,
		StockFloor:    config.StockFloorReject,
	})
	assert.Equal(t, config.MissingRecipeStrict, opts.MissingRecipe)
	assert.Equal(t, config.StockFloorReject, opts.StockFloor)
}

// ============================================================================
// TEST DOUBLES
// ============================================================================

type publishedEvent struct {
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{key: key, event: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.key)
	}
	return keys
}

func (p *recordingPublisher) Events(key string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, e := range p.events {
		if e.key == key {
			out = append(out, e.event)
		}
	}
	return out
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, any) error {
	return errors.New("broker unavailable")
}

func (failingPublisher) Close() error { return nil }

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
