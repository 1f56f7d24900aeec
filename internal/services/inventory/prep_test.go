package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhvimanvith/Gourmet/internal/config"
	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/notify"
	"github.com/prudhvimanvith/Gourmet/internal/testutil"
)

func TestProcessPrep(t *testing.T) {
	ctx := context.Background()

	t.Run("one batch of dough", func(t *testing.T) {
		svc, tdb, pub := setup(t, Options{})
		k := testutil.SeedPizzaKitchen(t, tdb, true)

		res, err := svc.ProcessPrep(ctx, k.Dough, 5, "")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.Batch.ReferenceID, "PREP-"), res.Batch.ReferenceID)

		tdb.AssertStock(t, k.Flour, 97)
		tdb.AssertStock(t, k.Water, 98.5)
		tdb.AssertStock(t, k.Yeast, 50)
		tdb.AssertStock(t, k.Dough, 15)
		tdb.AssertRowCount(t, "prep_batches", 1)
		tdb.AssertLedgerConsistent(t)

		rows, err := svc.Transactions(ctx, res.Batch.ReferenceID)
		require.NoError(t, err)
		require.Len(t, rows, 4)

		counts := map[models.TransactionType]int{}
		for _, row := range rows {
			counts[row.TransactionType]++
		}
		assert.Equal(t, 3, counts[models.TransactionTypePrepOut])
		assert.Equal(t, 1, counts[models.TransactionTypePrepIn])
		assert.Equal(t, models.TransactionTypePrepIn, res.Credit.TransactionType)
		assert.InDelta(t, 5, res.Credit.QuantityChange, 1e-9)

		batches, err := svc.PrepBatches(ctx, k.Dough, 0)
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, res.Batch.ID, batches[0].ID)

		assert.Contains(t, pub.Keys(), notify.KeyPrepRecorded)
	})

	t.Run("explicit reference is kept", func(t *testing.T) {
		svc, tdb, _ := setup(t, Options{})
		k := testutil.SeedPizzaKitchen(t, tdb, true)

		res, err := svc.ProcessPrep(ctx, k.Dough, 2.5, "MORNING-PREP")
		require.NoError(t, err)
		assert.Equal(t, "MORNING-PREP", res.Credit.ReferenceID)
		tdb.AssertStock(t, k.Flour, 100-1.5)

		_, err = svc.ProcessPrep(ctx, k.Dough, 1, "MORNING-PREP")
		require.Error(t, err)
		tdb.AssertRowCount(t, "prep_batches", 1)
		tdb.AssertStock(t, k.Dough, 12.5)
	})

	t.Run("only intermediates", func(t *testing.T) {
		svc, tdb, _ := setup(t, Options{})
		k := testutil.SeedPizzaKitchen(t, tdb, true)

		_, err := svc.ProcessPrep(ctx, k.Flour, 1, "")
		assert.ErrorIs(t, err, models.ErrInvalidItemType)
		_, err = svc.ProcessPrep(ctx, k.Margherita, 1, "")
		assert.ErrorIs(t, err, models.ErrInvalidItemType)
		tdb.AssertRowCount(t, "prep_batches", 0)
	})

	t.Run("missing recipe", func(t *testing.T) {
		svc, tdb, _ := setup(t, Options{})
		sauce := createItem(t, tdb, testutil.FixtureIntermediate())

		_, err := svc.ProcessPrep(ctx, sauce.ID, 1, "")
		assert.ErrorIs(t, err, models.ErrNotFound)
		tdb.AssertRowCount(t, "prep_batches", 0)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		svc, tdb, _ := setup(t, Options{})
		k := testutil.SeedPizzaKitchen(t, tdb, true)

		_, err := svc.ProcessPrep(ctx, k.Dough, -1, "")
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("failed ingredient leaves output untouched", func(t *testing.T) {
		svc, tdb, _ := setup(t, Options{StockFloor: config.StockFloorReject})
		k := testutil.SeedPizzaKitchen(t, tdb, true)
		ledgerRows := tdb.RowCount(t, "inventory_transactions")

		// 50 dough needs 500g yeast, only 100 on hand
		_, err := svc.ProcessPrep(ctx, k.Dough, 50, "")
		assert.ErrorIs(t, err, models.ErrInsufficientStock)

		tdb.AssertStock(t, k.Dough, 10)
		tdb.AssertStock(t, k.Flour, 100)
		tdb.AssertRowCount(t, "prep_batches", 0)
		tdb.AssertRowCount(t, "inventory_transactions", ledgerRows)
	})
}
