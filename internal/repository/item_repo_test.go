package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/testutil"
)

func setupItemTest(t *testing.T) (*ItemRepository, *testutil.TestDB, context.Context) {
	t.Helper()
	db := testutil.NewTestDB(t)
	return NewItemRepository(db.DB), db, context.Background()
}

func TestItemRepository_Create(t *testing.T) {
	repo, db, ctx := setupItemTest(t)

	item := testutil.FixtureItem(func(i *models.Item) {
		i.Name = "Flour"
		i.CostPerUnit = decimal.RequireFromString("1.50")
		i.CurrentStock = 42 // ignored on insert
	})

	t.Run("Create item", func(t *testing.T) {
		if err := repo.Create(ctx, nil, item); err != nil {
			t.Fatalf("failed to create item: %v", err)
		}

		got, err := repo.GetByID(ctx, nil, item.ID)
		if err != nil {
			t.Fatalf("failed to get item: %v", err)
		}
		if got.Name != "Flour" {
			t.Errorf("expected name Flour, got %s", got.Name)
		}
		if got.Type != models.ItemTypeRawMaterial {
			t.Errorf("expected type RAW_MATERIAL, got %s", got.Type)
		}
		if got.CurrentStock != 0 {
			t.Errorf("expected zero opening stock, got %v", got.CurrentStock)
		}
		if !got.CostPerUnit.Equal(decimal.RequireFromString("1.5")) {
			t.Errorf("expected cost 1.5, got %s", got.CostPerUnit)
		}
		if got.SellingPrice.Valid {
			t.Errorf("expected no selling price, got %s", got.SellingPrice.Decimal)
		}
		if got.SKU == nil || *got.SKU != *item.SKU {
			t.Errorf("expected sku %s, got %v", *item.SKU, got.SKU)
		}
	})

	t.Run("Duplicate sku fails", func(t *testing.T) {
		dup := testutil.FixtureItem(func(i *models.Item) { i.SKU = item.SKU })
		if err := repo.Create(ctx, nil, dup); err == nil {
			t.Error("expected error for duplicate sku")
		}
	})

	t.Run("Invalid type rejected by schema", func(t *testing.T) {
		bad := testutil.FixtureItem(func(i *models.Item) { i.Type = "SIDE" })
		if err := repo.Create(ctx, nil, bad); err == nil {
			t.Error("expected error for invalid type")
		}
	})

	db.AssertRowCount(t, "items", 1)
}

func TestItemRepository_GetByID_NotFound(t *testing.T) {
	repo, _, ctx := setupItemTest(t)

	_, err := repo.GetByID(ctx, nil, "ghost")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestItemRepository_Update(t *testing.T) {
	repo, _, ctx := setupItemTest(t)

	item := testutil.FixtureDish()
	if err := repo.Create(ctx, nil, item); err != nil {
		t.Fatalf("setup: %v", err)
	}

	item.Name = "Quattro Formaggi"
	item.SellingPrice = decimal.NewNullDecimal(decimal.RequireFromString("14.75"))
	item.CostPerUnit = decimal.RequireFromString("99") // not written by Update

	if err := repo.Update(ctx, nil, item); err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	got, _ := repo.GetByID(ctx, nil, item.ID)
	if got.Name != "Quattro Formaggi" {
		t.Errorf("expected updated name, got %s", got.Name)
	}
	if !got.Price().Equal(decimal.RequireFromString("14.75")) {
		t.Errorf("expected price 14.75, got %s", got.Price())
	}
	if !got.CostPerUnit.IsZero() {
		t.Errorf("expected cost untouched, got %s", got.CostPerUnit)
	}

	t.Run("Update missing item", func(t *testing.T) {
		ghost := testutil.FixtureItem()
		if err := repo.Update(ctx, nil, ghost); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestItemRepository_ApplyStockDelta(t *testing.T) {
	repo, db, ctx := setupItemTest(t)

	item := testutil.FixtureItem()
	if err := repo.Create(ctx, nil, item); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name      string
		delta     float64
		floor     bool
		wantApply bool
		wantStock float64
	}{
		{"Credit", 10, false, true, 10},
		{"Debit", -2.5, false, true, 7.5},
		{"Floor allows debit to zero", -7.5, true, true, 0},
		{"Floor rejects overdraw", -1, true, false, 0},
		{"Without floor stock goes negative", -1, false, true, -1},
		{"Floor ignores credits", 3, true, true, 2},
		{"Floor tolerates float noise", -(2 + 1e-12), true, true, -1e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applied, err := repo.ApplyStockDelta(ctx, nil, item.ID, tt.delta, tt.floor)
			if err != nil {
				t.Fatalf("ApplyStockDelta: %v", err)
			}
			if applied != tt.wantApply {
				t.Errorf("applied = %v, want %v", applied, tt.wantApply)
			}
			db.AssertStock(t, item.ID, tt.wantStock)
		})
	}

	t.Run("Missing item applies nothing", func(t *testing.T) {
		applied, err := repo.ApplyStockDelta(ctx, nil, "ghost", 1, false)
		if err != nil {
			t.Fatalf("ApplyStockDelta: %v", err)
		}
		if applied {
			t.Error("expected no row for missing item")
		}
	})
}

func TestItemRepository_List(t *testing.T) {
	repo, _, ctx := setupItemTest(t)

	flour := testutil.FixtureItem(func(i *models.Item) { i.Name = "Flour" })
	sauce := testutil.FixtureIntermediate(func(i *models.Item) { i.Name = "Tomato Sauce" })
	pizza := testutil.FixtureDish(func(i *models.Item) { i.Name = "Margherita" })
	for _, it := range []*models.Item{flour, sauce, pizza} {
		if err := repo.Create(ctx, nil, it); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	t.Run("All items", func(t *testing.T) {
		list, err := repo.List(ctx, models.ItemFilter{}, models.DefaultPagination())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if list.Total != 3 || len(list.Items) != 3 {
			t.Errorf("expected 3 items, got total=%d len=%d", list.Total, len(list.Items))
		}
	})

	t.Run("Filter by type", func(t *testing.T) {
		typ := models.ItemTypeDish
		list, err := repo.List(ctx, models.ItemFilter{Type: &typ}, models.DefaultPagination())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if list.Total != 1 || list.Items[0].ID != pizza.ID {
			t.Errorf("expected only the dish, got %+v", list.Items)
		}
	})

	t.Run("Search by name", func(t *testing.T) {
		list, err := repo.List(ctx, models.ItemFilter{Search: "tomato"}, models.DefaultPagination())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if list.Total != 1 || list.Items[0].ID != sauce.ID {
			t.Errorf("expected the sauce, got %+v", list.Items)
		}
	})

	t.Run("Low stock", func(t *testing.T) {
		// Every fixture starts at zero stock with threshold 1; the dish is excluded
		low, err := repo.ListLowStock(ctx, nil)
		if err != nil {
			t.Fatalf("ListLowStock: %v", err)
		}
		if len(low) != 2 {
			t.Errorf("expected 2 low-stock items, got %d", len(low))
		}
	})
}

func TestItemRepository_ListByIDs(t *testing.T) {
	repo, _, ctx := setupItemTest(t)

	a := testutil.FixtureItem()
	b := testutil.FixtureItem()
	for _, it := range []*models.Item{a, b} {
		if err := repo.Create(ctx, nil, it); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	got, err := repo.ListByIDs(ctx, nil, []string{a.ID, b.ID, "ghost"})
	if err != nil {
		t.Fatalf("ListByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 items, got %d", len(got))
	}

	none, err := repo.ListByIDs(ctx, nil, nil)
	if err != nil || none != nil {
		t.Errorf("expected nil for empty ids, got %v, %v", none, err)
	}
}
