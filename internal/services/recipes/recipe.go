package recipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/util"
)

// CreateRecipe adds the recipe for an intermediate or dish, then rolls its
// cost up into the output item. An item has at most one recipe.
func (s *Service) CreateRecipe(ctx context.Context, input CreateRecipeInput) (*models.Recipe, error) {
	if err := util.Validate(input); err != nil {
		return nil, err
	}

	var recipe *models.Recipe
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		output, err := s.items.GetByID(ctx, tx, input.OutputItemID)
		if err != nil {
			return err
		}
		if output.HasDirectCost() {
			return fmt.Errorf("%s %s cannot have a recipe: %w", output.Type, output.Name, models.ErrInvalidItemType)
		}

		if _, err := s.recipes.GetByOutputItem(ctx, tx, output.ID); err == nil {
			return fmt.Errorf("%s: %w", output.Name, models.ErrRecipeExists)
		} else if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		recipe = &models.Recipe{
			ID:           util.NewID(),
			OutputItemID: output.ID,
			BatchSize:    input.BatchSize,
			Instructions: input.Instructions,
			IsActive:     true,
			Ingredients:  toIngredients(input.Ingredients),
		}
		if err := s.checkGraph(ctx, tx, recipe); err != nil {
			return err
		}
		if err := s.recipes.Create(ctx, tx, recipe); err != nil {
			return err
		}

		recipe, err = s.finishRecipeWrite(ctx, tx, recipe.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating recipe: %w", err)
	}

	s.logger.Info("recipe created",
		"recipe_id", recipe.ID,
		"item_id", recipe.OutputItemID,
		"ingredients", len(recipe.Ingredients),
		"cost_per_unit", recipe.OutputItem.CostPerUnit.String(),
	)
	return recipe, nil
}

// UpdateRecipe replaces the recipe of itemID wholesale and recomputes the
// output cost. Item details in the input are applied in the same
// transaction.
func (s *Service) UpdateRecipe(ctx context.Context, itemID string, input UpdateRecipeInput) (*models.Recipe, error) {
	if err := util.Validate(input); err != nil {
		return nil, err
	}

	var recipe *models.Recipe
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		existing, err := s.recipes.GetByOutputItem(ctx, tx, itemID)
		if err != nil {
			return err
		}

		if input.Item != nil {
			if input.Item.CostPerUnit != nil {
				return models.NewValidation("Item.CostPerUnit", "is derived from the recipe")
			}
			if _, err := s.applyItemUpdate(ctx, tx, itemID, *input.Item); err != nil {
				return err
			}
		}

		existing.BatchSize = input.BatchSize
		existing.Instructions = input.Instructions
		if input.IsActive != nil {
			existing.IsActive = *input.IsActive
		}
		existing.Ingredients = toIngredients(input.Ingredients)

		if err := s.checkGraph(ctx, tx, existing); err != nil {
			return err
		}
		if err := s.recipes.UpdateHeader(ctx, tx, existing); err != nil {
			return err
		}
		if err := s.recipes.ReplaceIngredients(ctx, tx, existing); err != nil {
			return err
		}

		recipe, err = s.finishRecipeWrite(ctx, tx, existing.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("updating recipe: %w", err)
	}

	s.logger.Info("recipe updated",
		"recipe_id", recipe.ID,
		"item_id", recipe.OutputItemID,
		"ingredients", len(recipe.Ingredients),
		"cost_per_unit", recipe.OutputItem.CostPerUnit.String(),
	)
	return recipe, nil
}

// finishRecipeWrite recomputes the cost of a just-written recipe and
// reloads it with its output item.
func (s *Service) finishRecipeWrite(ctx context.Context, tx *sql.Tx, recipeID string) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, tx, recipeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.recalculate(ctx, tx, recipe); err != nil {
		return nil, err
	}
	if s.cascade {
		if err := s.cascadeFrom(ctx, tx, recipe.OutputItemID); err != nil {
			return nil, err
		}
	}

	output, err := s.items.GetByID(ctx, tx, recipe.OutputItemID)
	if err != nil {
		return nil, err
	}
	recipe.OutputItem = output
	return recipe, nil
}

// GetRecipe retrieves the recipe of itemID with its ingredients and output item.
func (s *Service) GetRecipe(ctx context.Context, itemID string) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByOutputItem(ctx, nil, itemID)
	if err != nil {
		return nil, err
	}
	output, err := s.items.GetByID(ctx, nil, itemID)
	if err != nil {
		return nil, err
	}
	recipe.OutputItem = output
	return recipe, nil
}

// ListRecipes returns every recipe with its ingredients.
func (s *Service) ListRecipes(ctx context.Context) ([]*models.Recipe, error) {
	return s.recipes.ListAll(ctx, nil)
}

// DeleteRecipe removes the recipe of itemID and its ingredients. The item
// and its ledger history stay.
func (s *Service) DeleteRecipe(ctx context.Context, itemID string) error {
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		recipe, err := s.recipes.GetByOutputItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		return s.recipes.Delete(ctx, tx, recipe.ID)
	})
	if err != nil {
		return fmt.Errorf("deleting recipe: %w", err)
	}

	s.logger.Info("recipe deleted", "item_id", itemID)
	return nil
}

// ============================================================================
// GRAPH VALIDATION
// ============================================================================

// checkGraph verifies that every component exists and that adding recipe
// to the active graph keeps it acyclic.
func (s *Service) checkGraph(ctx context.Context, tx *sql.Tx, recipe *models.Recipe) error {
	componentIDs := recipe.ComponentIDs()
	components, err := s.items.ListByIDs(ctx, tx, componentIDs)
	if err != nil {
		return err
	}
	found := make(map[string]bool, len(components))
	for _, c := range components {
		found[c.ID] = true
	}
	for _, id := range componentIDs {
		if !found[id] {
			return models.NewNotFound("item", id)
		}
	}

	if !recipe.IsActive {
		return nil
	}

	edges, err := s.recipes.ActiveEdges(ctx, tx)
	if err != nil {
		return err
	}
	graph := newGraph(edges, recipe.OutputItemID)
	graph.replace(recipe.OutputItemID, componentIDs)

	path := graph.cycleThrough(recipe.OutputItemID)
	if path == nil {
		return nil
	}
	return s.cycleError(ctx, tx, path)
}

// cycleError names the items on path for the error message.
func (s *Service) cycleError(ctx context.Context, tx *sql.Tx, path []string) error {
	items, err := s.items.ListByIDs(ctx, tx, path)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}

	named := make([]string, len(path))
	for i, id := range path {
		named[i] = id
		if n, ok := names[id]; ok {
			named[i] = n
		}
	}
	return &models.CycleError{Path: named}
}
