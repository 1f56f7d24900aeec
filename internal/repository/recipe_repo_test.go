package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/testutil"
)

func setupRecipeTest(t *testing.T) (*RecipeRepository, *testutil.TestDB, testutil.PizzaKitchen, context.Context) {
	t.Helper()
	db := testutil.NewTestDB(t)
	kitchen := testutil.SeedPizzaKitchen(t, db, false)
	return NewRecipeRepository(db.DB), db, kitchen, context.Background()
}

func TestRecipeRepository_GetActiveByOutputItem(t *testing.T) {
	repo, _, k, ctx := setupRecipeTest(t)

	recipe, err := repo.GetActiveByOutputItem(ctx, nil, k.Dough)
	if err != nil {
		t.Fatalf("failed to get recipe: %v", err)
	}

	if recipe.ID != k.DoughRecipe {
		t.Errorf("expected recipe %s, got %s", k.DoughRecipe, recipe.ID)
	}
	if recipe.BatchSize != 5 {
		t.Errorf("expected batch size 5, got %v", recipe.BatchSize)
	}
	if len(recipe.Ingredients) != 3 {
		t.Fatalf("expected 3 ingredients, got %d", len(recipe.Ingredients))
	}

	wantOrder := []string{k.Flour, k.Water, k.Yeast}
	for i, ing := range recipe.Ingredients {
		if ing.ComponentItemID != wantOrder[i] {
			t.Errorf("ingredient %d: expected %s, got %s", i, wantOrder[i], ing.ComponentItemID)
		}
		if ing.Component == nil || ing.Component.ID != ing.ComponentItemID {
			t.Errorf("ingredient %d: component not joined", i)
		}
	}
	if recipe.Ingredients[0].Component.Name != "Flour" {
		t.Errorf("expected Flour, got %s", recipe.Ingredients[0].Component.Name)
	}

	t.Run("Item without recipe", func(t *testing.T) {
		_, err := repo.GetActiveByOutputItem(ctx, nil, k.Flour)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Inactive recipe is not returned", func(t *testing.T) {
		recipe.IsActive = false
		if err := repo.UpdateHeader(ctx, nil, recipe); err != nil {
			t.Fatalf("UpdateHeader: %v", err)
		}
		if _, err := repo.GetActiveByOutputItem(ctx, nil, k.Dough); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound for inactive recipe, got %v", err)
		}
		if _, err := repo.GetByOutputItem(ctx, nil, k.Dough); err != nil {
			t.Errorf("GetByOutputItem should still find it: %v", err)
		}
	})
}

func TestRecipeRepository_Create(t *testing.T) {
	repo, db, k, ctx := setupRecipeTest(t)

	sauce := testutil.FixtureIntermediate(func(i *models.Item) { i.Name = "Tomato Sauce" })
	if err := NewItemRepository(db.DB).Create(ctx, nil, sauce); err != nil {
		t.Fatalf("setup: %v", err)
	}

	recipe := testutil.FixtureRecipe(sauce.ID, []models.RecipeIngredient{
		testutil.Ingredient(k.Tomato, 2, 10),
		testutil.Ingredient(k.Water, 0.5, 0),
	}, func(r *models.Recipe) {
		r.BatchSize = 2
		r.Instructions = "Simmer 40 minutes"
	})

	t.Run("Create with ingredients", func(t *testing.T) {
		if err := repo.Create(ctx, nil, recipe); err != nil {
			t.Fatalf("failed to create recipe: %v", err)
		}
		got, err := repo.GetByID(ctx, nil, recipe.ID)
		if err != nil {
			t.Fatalf("failed to get recipe: %v", err)
		}
		if got.Instructions != "Simmer 40 minutes" {
			t.Errorf("expected instructions, got %q", got.Instructions)
		}
		if len(got.Ingredients) != 2 || got.Ingredients[0].WastagePercent != 10 {
			t.Errorf("unexpected ingredients: %+v", got.Ingredients)
		}
		if got.Ingredients[1].Position != 2 {
			t.Errorf("expected position 2, got %d", got.Ingredients[1].Position)
		}
	})

	t.Run("Second recipe for same item fails", func(t *testing.T) {
		dup := testutil.FixtureRecipe(sauce.ID, []models.RecipeIngredient{testutil.Ingredient(k.Tomato, 1, 0)})
		if err := repo.Create(ctx, nil, dup); err == nil {
			t.Error("expected unique violation on output_item_id")
		}
	})

	t.Run("Zero quantity rejected by schema", func(t *testing.T) {
		calzone := testutil.FixtureDish(func(i *models.Item) { i.Name = "Calzone" })
		if err := NewItemRepository(db.DB).Create(ctx, nil, calzone); err != nil {
			t.Fatalf("setup: %v", err)
		}
		bad := testutil.FixtureRecipe(calzone.ID, []models.RecipeIngredient{testutil.Ingredient(k.Tomato, 0, 0)})
		if err := repo.Create(ctx, nil, bad); err == nil {
			t.Error("expected check violation")
		}
	})
}

func TestRecipeRepository_ReplaceIngredients(t *testing.T) {
	repo, db, k, ctx := setupRecipeTest(t)

	recipe, err := repo.GetActiveByOutputItem(ctx, nil, k.Margherita)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	recipe.Ingredients = []models.RecipeIngredient{
		testutil.Ingredient(k.Dough, 0.35, 0),
		testutil.Ingredient(k.Cheese, 0.2, 2),
	}
	if err := repo.ReplaceIngredients(ctx, nil, recipe); err != nil {
		t.Fatalf("ReplaceIngredients: %v", err)
	}

	got, _ := repo.GetByID(ctx, nil, recipe.ID)
	if len(got.Ingredients) != 2 {
		t.Fatalf("expected 2 ingredients, got %d", len(got.Ingredients))
	}
	if got.Ingredients[1].ComponentItemID != k.Cheese || got.Ingredients[1].Quantity != 0.2 {
		t.Errorf("unexpected second ingredient: %+v", got.Ingredients[1])
	}

	// 3 dough + 2 margherita
	db.AssertRowCount(t, "recipe_ingredients", 5)
}

func TestRecipeRepository_Delete(t *testing.T) {
	repo, db, k, ctx := setupRecipeTest(t)

	if err := repo.Delete(ctx, nil, k.MargheritaRecipe); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	db.AssertRowCount(t, "recipes", 1)
	db.AssertRowCount(t, "recipe_ingredients", 3)
	db.AssertRowCount(t, "items", 7)

	if err := repo.Delete(ctx, nil, k.MargheritaRecipe); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRecipeRepository_Graph(t *testing.T) {
	repo, _, k, ctx := setupRecipeTest(t)

	edges, err := repo.ActiveEdges(ctx, nil)
	if err != nil {
		t.Fatalf("ActiveEdges: %v", err)
	}
	if len(edges) != 6 {
		t.Errorf("expected 6 edges, got %d", len(edges))
	}

	consumers, err := repo.ConsumerRecipeIDs(ctx, nil, k.Dough)
	if err != nil {
		t.Fatalf("ConsumerRecipeIDs: %v", err)
	}
	if len(consumers) != 1 || consumers[0] != k.MargheritaRecipe {
		t.Errorf("expected margherita to consume dough, got %v", consumers)
	}

	none, err := repo.ConsumerRecipeIDs(ctx, nil, k.Margherita)
	if err != nil {
		t.Fatalf("ConsumerRecipeIDs: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no consumers of a dish, got %v", none)
	}
}
