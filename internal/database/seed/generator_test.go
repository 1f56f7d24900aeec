package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prudhvimanvith/Gourmet/internal/services/inventory"
	"github.com/prudhvimanvith/Gourmet/internal/services/recipes"
	"github.com/prudhvimanvith/Gourmet/internal/testutil"
)

func newGenerator(t *testing.T, cfg Config) (*Generator, *testutil.TestDB) {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := recipes.NewService(tdb.DB, recipes.Options{Logger: logger})
	inv := inventory.NewService(tdb.DB, inventory.Options{Logger: logger})
	return NewGenerator(catalog, inv, cfg), tdb
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	gen, tdb := newGenerator(t, DefaultConfig())

	result, err := gen.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tdb.AssertRowCount(t, "items", len(Items))
	tdb.AssertRowCount(t, "recipes", len(Recipes))
	tdb.AssertStock(t, result.Items[Flour].ID, 100)
	tdb.AssertStock(t, result.Items[PizzaDough].ID, 10)
	tdb.AssertLedgerConsistent(t)

	if result.Items[PizzaDough].IsAutoExplode {
		t.Error("dough should be stocked by default")
	}

	dough := result.Items[PizzaDough]
	if got := dough.CostPerUnit.String(); got != "1.43" {
		t.Errorf("dough cost = %s, want 1.43", got)
	}
	margherita := result.Items[Margherita]
	if got := margherita.CostPerUnit.String(); got != "1.839" {
		t.Errorf("margherita cost = %s, want 1.839", got)
	}

	t.Run("second run refused", func(t *testing.T) {
		_, err := gen.Generate(ctx)
		if !errors.Is(err, ErrAlreadySeeded) {
			t.Errorf("expected ErrAlreadySeeded, got %v", err)
		}
	})
}

func TestGenerateSampleOrders(t *testing.T) {
	gen, tdb := newGenerator(t, Config{PhantomDough: true, SampleOrders: 5, RandomSeed: 7})

	result, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Orders != 5 {
		t.Errorf("Orders = %d, want 5", result.Orders)
	}
	if !result.Items[PizzaDough].IsAutoExplode {
		t.Error("dough should be a phantom")
	}

	tdb.AssertRowCount(t, "orders", 5)
	tdb.AssertStock(t, result.Items[PizzaDough].ID, 10)
	tdb.AssertLedgerConsistent(t)
}
