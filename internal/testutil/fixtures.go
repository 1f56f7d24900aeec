package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prudhvimanvith/Gourmet/internal/models"
)

// FixtureItem creates a raw material with sensible defaults.
func FixtureItem(overrides ...func(*models.Item)) *models.Item {
	id := uuid.New().String()
	now := time.Now().UTC()
	sku := "SKU-" + id[:8]

	item := &models.Item{
		ID:           id,
		Name:         "Item " + id[:8],
		SKU:          &sku,
		Type:         models.ItemTypeRawMaterial,
		Unit:         "kg",
		MinThreshold: 1,
		CostPerUnit:  decimal.RequireFromString("2.50"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, override := range overrides {
		override(item)
	}

	return item
}

// FixtureIntermediate creates a stocked intermediate.
func FixtureIntermediate(overrides ...func(*models.Item)) *models.Item {
	return FixtureItem(append([]func(*models.Item){
		func(i *models.Item) {
			i.Type = models.ItemTypeIntermediate
			i.CostPerUnit = decimal.Zero
		},
	}, overrides...)...)
}

// FixturePhantom creates an auto-exploding intermediate.
func FixturePhantom(overrides ...func(*models.Item)) *models.Item {
	return FixtureIntermediate(append([]func(*models.Item){
		func(i *models.Item) {
			i.IsAutoExplode = true
		},
	}, overrides...)...)
}

// FixtureDish creates a dish with a selling price.
func FixtureDish(overrides ...func(*models.Item)) *models.Item {
	return FixtureItem(append([]func(*models.Item){
		func(i *models.Item) {
			i.Type = models.ItemTypeDish
			i.Unit = "portion"
			i.MinThreshold = 0
			i.CostPerUnit = decimal.Zero
			i.SellingPrice = decimal.NewNullDecimal(decimal.RequireFromString("12.00"))
		},
	}, overrides...)...)
}

// FixtureRecipe creates an active single-batch recipe for outputItemID.
func FixtureRecipe(outputItemID string, ingredients []models.RecipeIngredient, overrides ...func(*models.Recipe)) *models.Recipe {
	recipe := &models.Recipe{
		ID:           uuid.New().String(),
		OutputItemID: outputItemID,
		BatchSize:    1,
		IsActive:     true,
		Ingredients:  ingredients,
	}

	for _, override := range overrides {
		override(recipe)
	}

	return recipe
}

// Ingredient is shorthand for a recipe ingredient.
func Ingredient(componentID string, quantity, wastagePercent float64) models.RecipeIngredient {
	return models.RecipeIngredient{
		ComponentItemID: componentID,
		Quantity:        quantity,
		WastagePercent:  wastagePercent,
	}
}

// PizzaKitchen holds the ids of the demo pizza dataset.
type PizzaKitchen struct {
	Flour, Water, Yeast, Tomato, Cheese string
	Dough                               string
	Margherita                          string
	DoughRecipe, MargheritaRecipe       string
}

// SeedPizzaKitchen writes the pizza dataset with plain SQL. Raw materials
// start at 100 units and dough at 10, each with a matching PURCHASE row so
// the ledger is consistent from the start. Dough is a phantom unless
// stockedDough is set.
func SeedPizzaKitchen(t *testing.T, tdb *TestDB, stockedDough bool) PizzaKitchen {
	t.Helper()

	k := PizzaKitchen{
		Flour:            uuid.New().String(),
		Water:            uuid.New().String(),
		Yeast:            uuid.New().String(),
		Tomato:           uuid.New().String(),
		Cheese:           uuid.New().String(),
		Dough:            uuid.New().String(),
		Margherita:       uuid.New().String(),
		DoughRecipe:      uuid.New().String(),
		MargheritaRecipe: uuid.New().String(),
	}
	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")

	item := func(id, name, typ, unit string, minThreshold float64, cost, price string, autoExplode int, stock float64) {
		var sellingPrice any
		if price != "" {
			sellingPrice = price
		}
		tdb.ExecSQL(t, `
			INSERT INTO items (id, name, type, unit, current_stock, min_threshold, cost_per_unit,
				selling_price, is_auto_explode, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, name, typ, unit, stock, minThreshold, cost, sellingPrice, autoExplode, ts, ts)
		if stock != 0 {
			tdb.ExecSQL(t, `
				INSERT INTO inventory_transactions (id, item_id, quantity_change, transaction_type, reference_id, created_at)
				VALUES (?, ?, ?, 'PURCHASE', 'SEED', ?)`,
				uuid.New().String(), id, stock, ts)
		}
	}

	item(k.Flour, "Flour", "RAW_MATERIAL", "kg", 10, "1.50", "", 0, 100)
	item(k.Water, "Water", "RAW_MATERIAL", "l", 0, "0.10", "", 0, 100)
	item(k.Yeast, "Yeast", "RAW_MATERIAL", "g", 100, "0.05", "", 0, 100)
	item(k.Tomato, "Tomato", "RAW_MATERIAL", "kg", 5, "2.00", "", 0, 100)
	item(k.Cheese, "Cheese", "RAW_MATERIAL", "kg", 5, "8.00", "", 0, 100)

	autoExplode := 1
	if stockedDough {
		autoExplode = 0
	}
	item(k.Dough, "Pizza Dough", "INTERMEDIATE", "kg", 2, "0", "", autoExplode, 10)
	item(k.Margherita, "Margherita Pizza", "DISH", "portion", 0, "0", "12.00", 0, 0)

	recipe := func(id, outputID string, batch float64, ingredients ...models.RecipeIngredient) {
		tdb.ExecSQL(t, `
			INSERT INTO recipes (id, output_item_id, batch_size, is_active, created_at, updated_at)
			VALUES (?, ?, ?, 1, ?, ?)`, id, outputID, batch, ts, ts)
		for i, ing := range ingredients {
			tdb.ExecSQL(t, `
				INSERT INTO recipe_ingredients (id, recipe_id, component_item_id, position, quantity, wastage_percent)
				VALUES (?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), id, ing.ComponentItemID, i+1, ing.Quantity, ing.WastagePercent)
		}
	}

	recipe(k.DoughRecipe, k.Dough, 5,
		Ingredient(k.Flour, 3, 0),
		Ingredient(k.Water, 1.5, 0),
		Ingredient(k.Yeast, 50, 0),
	)
	recipe(k.MargheritaRecipe, k.Margherita, 1,
		Ingredient(k.Dough, 0.3, 0),
		Ingredient(k.Tomato, 0.1, 5),
		Ingredient(k.Cheese, 0.15, 0),
	)

	return k
}
