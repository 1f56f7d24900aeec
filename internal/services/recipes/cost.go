package recipes

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/prudhvimanvith/Gourmet/internal/models"
)

// costScale is the number of decimal places kept in rolled-up costs.
const costScale = 6

// RecipeCost returns the per-unit cost of a recipe's output from the
// current costs of its components:
// sum(cost * quantity * (1 + wastage/100)) / batch_size.
func RecipeCost(recipe *models.Recipe) decimal.Decimal {
	total := decimal.Zero
	for _, ing := range recipe.Ingredients {
		if ing.Component == nil {
			continue
		}
		line := ing.Component.CostPerUnit.
			Mul(decimal.NewFromFloat(ing.Quantity)).
			Mul(ing.WastageFactor())
		total = total.Add(line)
	}
	return total.Div(decimal.NewFromFloat(recipe.BatchSize)).Round(costScale)
}

// RecalculateRecipeCost recomputes the cost of recipeID's output item
// inside tx and writes it back. It does not touch consumers of the item.
func (s *Service) RecalculateRecipeCost(ctx context.Context, tx *sql.Tx, recipeID string) (decimal.Decimal, error) {
	recipe, err := s.recipes.GetByID(ctx, tx, recipeID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.recalculate(ctx, tx, recipe)
}

func (s *Service) recalculate(ctx context.Context, tx *sql.Tx, recipe *models.Recipe) (decimal.Decimal, error) {
	cost := RecipeCost(recipe)
	if err := s.items.UpdateCost(ctx, tx, recipe.OutputItemID, cost); err != nil {
		return decimal.Zero, fmt.Errorf("writing cost of %s: %w", recipe.OutputItemID, err)
	}
	return cost, nil
}

// RecalculateCost recomputes one recipe's cost in its own transaction,
// cascading to consumers when enabled.
func (s *Service) RecalculateCost(ctx context.Context, recipeID string) (decimal.Decimal, error) {
	var cost decimal.Decimal
	var outputID string
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		recipe, err := s.recipes.GetByID(ctx, tx, recipeID)
		if err != nil {
			return err
		}
		outputID = recipe.OutputItemID

		cost, err = s.recalculate(ctx, tx, recipe)
		if err != nil {
			return err
		}
		if s.cascade {
			return s.cascadeFrom(ctx, tx, recipe.OutputItemID)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("recalculating cost: %w", err)
	}

	s.logger.Info("recipe cost recalculated", "recipe_id", recipeID, "item_id", outputID, "cost_per_unit", cost.String())
	return cost, nil
}

// RecalculateConsumers recomputes, one level deep, every active recipe
// that uses itemID as an ingredient. It returns the number of recipes
// updated.
func (s *Service) RecalculateConsumers(ctx context.Context, itemID string) (int, error) {
	var n int
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		ids, err := s.recipes.ConsumerRecipeIDs(ctx, tx, itemID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := s.RecalculateRecipeCost(ctx, tx, id); err != nil {
				return err
			}
		}
		n = len(ids)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("recalculating consumers: %w", err)
	}

	s.logger.Info("consumer costs recalculated", "item_id", itemID, "recipes", n)
	return n, nil
}

// cascadeFrom recomputes every recipe that transitively consumes itemID,
// each after the affected items it is made from.
func (s *Service) cascadeFrom(ctx context.Context, tx *sql.Tx, itemID string) error {
	edges, err := s.recipes.ActiveEdges(ctx, tx)
	if err != nil {
		return err
	}

	order, ok := newGraph(edges, "").consumersInOrder(itemID)
	if !ok {
		return fmt.Errorf("cascading cost of %s: %w", itemID, models.ErrRecipeCycle)
	}

	for _, outputID := range order {
		recipe, err := s.recipes.GetActiveByOutputItem(ctx, tx, outputID)
		if err != nil {
			return err
		}
		if _, err := s.recalculate(ctx, tx, recipe); err != nil {
			return err
		}
	}
	if len(order) > 0 {
		s.logger.Debug("cost cascaded", "item_id", itemID, "recipes", len(order))
	}
	return nil
}
