package recipes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/testutil"
)

func TestRecipeCost(t *testing.T) {
	tests := []struct {
		name   string
		recipe *models.Recipe
		want   string
	}{
		{
			name:   "empty recipe",
			recipe: &models.Recipe{BatchSize: 1},
			want:   "0",
		},
		{
			name: "batch and wastage",
			recipe: &models.Recipe{
				BatchSize: 4,
				Ingredients: []models.RecipeIngredient{
					{Quantity: 2, WastagePercent: 25, Component: &models.Item{CostPerUnit: dec("3")}},
					{Quantity: 1, Component: &models.Item{CostPerUnit: dec("0.5")}},
				},
			},
			// (3*2*1.25 + 0.5) / 4
			want: "2",
		},
		{
			name: "rounded to six places",
			recipe: &models.Recipe{
				BatchSize: 3,
				Ingredients: []models.RecipeIngredient{
					{Quantity: 1, Component: &models.Item{CostPerUnit: dec("1")}},
				},
			},
			want: "0.333333",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCost(t, tt.want, RecipeCost(tt.recipe))
		})
	}
}

func TestRecalculateCost(t *testing.T) {
	ctx := context.Background()

	t.Run("single level", func(t *testing.T) {
		svc, tdb := setup(t, Options{})
		k := testutil.SeedPizzaKitchen(t, tdb, false)

		cost, err := svc.RecalculateCost(ctx, k.DoughRecipe)
		require.NoError(t, err)
		assertCost(t, "1.43", cost)

		// Margherita was not touched
		pizza, err := svc.GetItem(ctx, k.Margherita)
		require.NoError(t, err)
		assertCost(t, "0", pizza.CostPerUnit)

		cost, err = svc.RecalculateCost(ctx, k.MargheritaRecipe)
		require.NoError(t, err)
		assertCost(t, "1.839", cost)
	})

	t.Run("idempotent", func(t *testing.T) {
		svc, tdb := setup(t, Options{})
		k := testutil.SeedPizzaKitchen(t, tdb, false)

		first, err := svc.RecalculateCost(ctx, k.DoughRecipe)
		require.NoError(t, err)
		second, err := svc.RecalculateCost(ctx, k.DoughRecipe)
		require.NoError(t, err)
		assert.True(t, first.Equal(second), "%s != %s", first, second)
	})

	t.Run("unknown recipe", func(t *testing.T) {
		svc, _ := setup(t, Options{})
		_, err := svc.RecalculateCost(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("cascade reaches every consumer", func(t *testing.T) {
		svc, tdb := setup(t, Options{Cascade: true})
		k := testutil.SeedPizzaKitchen(t, tdb, false)

		_, err := svc.RecalculateCost(ctx, k.DoughRecipe)
		require.NoError(t, err)

		pizza, err := svc.GetItem(ctx, k.Margherita)
		require.NoError(t, err)
		assertCost(t, "1.839", pizza.CostPerUnit)

		// flour at 2.50: dough (7.5+0.15+2.5)/5 = 2.03, pizza 0.609+0.21+1.2
		_, err = svc.UpdateItem(ctx, k.Flour, UpdateItemInput{CostPerUnit: decPtr("2.50")})
		require.NoError(t, err)

		dough, err := svc.GetItem(ctx, k.Dough)
		require.NoError(t, err)
		assertCost(t, "2.03", dough.CostPerUnit)

		pizza, err = svc.GetItem(ctx, k.Margherita)
		require.NoError(t, err)
		assertCost(t, "2.019", pizza.CostPerUnit)
	})

	t.Run("consumers one level", func(t *testing.T) {
		svc, tdb := setup(t, Options{})
		k := testutil.SeedPizzaKitchen(t, tdb, false)

		n, err := svc.RecalculateConsumers(ctx, k.Flour)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		dough, err := svc.GetItem(ctx, k.Dough)
		require.NoError(t, err)
		assertCost(t, "1.43", dough.CostPerUnit)
	})
}

func TestRecalculateRecipeCostInTransaction(t *testing.T) {
	ctx := context.Background()
	svc, tdb := setup(t, Options{})
	k := testutil.SeedPizzaKitchen(t, tdb, false)

	tx, err := tdb.BeginTx(ctx, nil)
	require.NoError(t, err)

	cost, err := svc.RecalculateRecipeCost(ctx, tx, k.DoughRecipe)
	require.NoError(t, err)
	assertCost(t, "1.43", cost)
	require.NoError(t, tx.Rollback())

	dough, err := svc.GetItem(ctx, k.Dough)
	require.NoError(t, err)
	assertCost(t, "0", dough.CostPerUnit)
}
