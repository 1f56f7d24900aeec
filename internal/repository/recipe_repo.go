package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prudhvimanvith/Gourmet/internal/database"
	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/util"
)

// RecipeRepository handles recipe graph data access.
type RecipeRepository struct {
	base
}

// NewRecipeRepository creates a new recipe repository.
func NewRecipeRepository(db *database.DB) *RecipeRepository {
	return &RecipeRepository{base{db: db}}
}

// ============================================================================
// RECIPES
// ============================================================================

// Create inserts a recipe header together with its ingredients.
func (r *RecipeRepository) Create(ctx context.Context, tx *sql.Tx, recipe *models.Recipe) error {
	query := r.q(`
		INSERT INTO recipes (
			id, output_item_id, batch_size, instructions, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)

	ts := now()
	recipe.CreatedAt = ts
	recipe.UpdatedAt = ts

	_, err := r.getExecer(tx).ExecContext(ctx, query,
		recipe.ID,
		recipe.OutputItemID,
		recipe.BatchSize,
		nullableString(recipe.Instructions),
		boolToInt(recipe.IsActive),
		formatTime(recipe.CreatedAt),
		formatTime(recipe.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting recipe: %w", err)
	}

	return r.insertIngredients(ctx, tx, recipe)
}

// UpdateHeader writes batch size, instructions and the active flag.
func (r *RecipeRepository) UpdateHeader(ctx context.Context, tx *sql.Tx, recipe *models.Recipe) error {
	query := r.q(`
		UPDATE recipes SET batch_size = ?, instructions = ?, is_active = ?, updated_at = ?
		WHERE id = ?`)

	recipe.UpdatedAt = now()

	result, err := r.getExecer(tx).ExecContext(ctx, query,
		recipe.BatchSize,
		nullableString(recipe.Instructions),
		boolToInt(recipe.IsActive),
		formatTime(recipe.UpdatedAt),
		recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("updating recipe: %w", err)
	}
	return requireAffected(result, "recipe", recipe.ID)
}

// ReplaceIngredients deletes a recipe's ingredients and inserts the given set.
func (r *RecipeRepository) ReplaceIngredients(ctx context.Context, tx *sql.Tx, recipe *models.Recipe) error {
	_, err := r.getExecer(tx).ExecContext(ctx, r.q(`DELETE FROM recipe_ingredients WHERE recipe_id = ?`), recipe.ID)
	if err != nil {
		return fmt.Errorf("deleting ingredients: %w", err)
	}
	return r.insertIngredients(ctx, tx, recipe)
}

func (r *RecipeRepository) insertIngredients(ctx context.Context, tx *sql.Tx, recipe *models.Recipe) error {
	query := r.q(`
		INSERT INTO recipe_ingredients (
			id, recipe_id, component_item_id, position, quantity, wastage_percent
		) VALUES (?, ?, ?, ?, ?, ?)`)

	execer := r.getExecer(tx)
	for i := range recipe.Ingredients {
		ing := &recipe.Ingredients[i]
		if ing.ID == "" {
			ing.ID = util.NewID()
		}
		ing.RecipeID = recipe.ID
		ing.Position = i + 1

		_, err := execer.ExecContext(ctx, query,
			ing.ID, ing.RecipeID, ing.ComponentItemID, ing.Position, ing.Quantity, ing.WastagePercent,
		)
		if err != nil {
			return fmt.Errorf("inserting ingredient %d: %w", ing.Position, err)
		}
	}
	return nil
}

// GetByID retrieves a recipe and its ingredients.
func (r *RecipeRepository) GetByID(ctx context.Context, tx *sql.Tx, id string) (*models.Recipe, error) {
	query := r.q(`
		SELECT id, output_item_id, batch_size, instructions, is_active, created_at, updated_at
		FROM recipes WHERE id = ?`)
	return r.loadRecipe(ctx, tx, r.getQueryer(tx).QueryRowContext(ctx, query, id), id)
}

// GetActiveByOutputItem retrieves the active recipe that produces itemID.
func (r *RecipeRepository) GetActiveByOutputItem(ctx context.Context, tx *sql.Tx, itemID string) (*models.Recipe, error) {
	query := r.q(`
		SELECT id, output_item_id, batch_size, instructions, is_active, created_at, updated_at
		FROM recipes WHERE output_item_id = ? AND is_active = 1`)
	return r.loadRecipe(ctx, tx, r.getQueryer(tx).QueryRowContext(ctx, query, itemID), itemID)
}

// GetByOutputItem retrieves the recipe for itemID whether or not it is active.
func (r *RecipeRepository) GetByOutputItem(ctx context.Context, tx *sql.Tx, itemID string) (*models.Recipe, error) {
	query := r.q(`
		SELECT id, output_item_id, batch_size, instructions, is_active, created_at, updated_at
		FROM recipes WHERE output_item_id = ?`)
	return r.loadRecipe(ctx, tx, r.getQueryer(tx).QueryRowContext(ctx, query, itemID), itemID)
}

// Delete removes a recipe; its ingredients cascade.
func (r *RecipeRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	execer := r.getExecer(tx)

	// Explicit delete keeps postgres and sqlite without FK enforcement in step
	if _, err := execer.ExecContext(ctx, r.q(`DELETE FROM recipe_ingredients WHERE recipe_id = ?`), id); err != nil {
		return fmt.Errorf("deleting ingredients: %w", err)
	}

	result, err := execer.ExecContext(ctx, r.q(`DELETE FROM recipes WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting recipe: %w", err)
	}
	return requireAffected(result, "recipe", id)
}

// ListAll returns every recipe header, without ingredients.
func (r *RecipeRepository) ListAll(ctx context.Context, tx *sql.Tx) ([]*models.Recipe, error) {
	rows, err := r.getQueryer(tx).QueryContext(ctx, `
		SELECT id, output_item_id, batch_size, instructions, is_active, created_at, updated_at
		FROM recipes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("querying recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		recipe, err := scanRecipeFields(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, rows.Err()
}

// ============================================================================
// GRAPH
// ============================================================================

// Edge is a component-to-output link of an active recipe.
type Edge struct {
	OutputItemID    string
	ComponentItemID string
}

// ActiveEdges returns every edge of the active recipe graph.
func (r *RecipeRepository) ActiveEdges(ctx context.Context, tx *sql.Tx) ([]Edge, error) {
	rows, err := r.getQueryer(tx).QueryContext(ctx, `
		SELECT r.output_item_id, ri.component_item_id
		FROM recipe_ingredients ri
		JOIN recipes r ON r.id = ri.recipe_id
		WHERE r.is_active = 1
		ORDER BY r.output_item_id, ri.position`)
	if err != nil {
		return nil, fmt.Errorf("querying recipe graph: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.OutputItemID, &e.ComponentItemID); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ConsumerRecipeIDs returns the active recipes that list itemID as an ingredient.
func (r *RecipeRepository) ConsumerRecipeIDs(ctx context.Context, tx *sql.Tx, itemID string) ([]string, error) {
	rows, err := r.getQueryer(tx).QueryContext(ctx, r.q(`
		SELECT DISTINCT r.id
		FROM recipes r
		JOIN recipe_ingredients ri ON ri.recipe_id = r.id
		WHERE ri.component_item_id = ? AND r.is_active = 1`), itemID)
	if err != nil {
		return nil, fmt.Errorf("querying consumers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning consumer: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ============================================================================
// HELPERS
// ============================================================================

func (r *RecipeRepository) loadRecipe(ctx context.Context, tx *sql.Tx, row *sql.Row, key string) (*models.Recipe, error) {
	recipe, err := scanRecipeFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFound("recipe", key)
	}
	if err != nil {
		return nil, err
	}

	ingredients, err := r.listIngredients(ctx, tx, recipe.ID)
	if err != nil {
		return nil, err
	}
	recipe.Ingredients = ingredients
	return recipe, nil
}

// listIngredients returns a recipe's ingredients in position order, joined
// with the component item.
func (r *RecipeRepository) listIngredients(ctx context.Context, tx *sql.Tx, recipeID string) ([]models.RecipeIngredient, error) {
	query := r.q(`
		SELECT ri.id, ri.recipe_id, ri.component_item_id, ri.position, ri.quantity, ri.wastage_percent,
			i.id, i.name, i.sku, i.type, i.unit, i.current_stock, i.min_threshold,
			i.cost_per_unit, i.selling_price, i.is_auto_explode, i.created_at, i.updated_at
		FROM recipe_ingredients ri
		JOIN items i ON i.id = ri.component_item_id
		WHERE ri.recipe_id = ?
		ORDER BY ri.position`)

	rows, err := r.getQueryer(tx).QueryContext(ctx, query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("querying ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []models.RecipeIngredient
	for rows.Next() {
		var ing models.RecipeIngredient
		var item models.Item
		var sku sql.NullString
		var typ string
		var autoExplode int
		var createdStr, updatedStr string

		err := rows.Scan(
			&ing.ID, &ing.RecipeID, &ing.ComponentItemID, &ing.Position, &ing.Quantity, &ing.WastagePercent,
			&item.ID, &item.Name, &sku, &typ, &item.Unit, &item.CurrentStock, &item.MinThreshold,
			&item.CostPerUnit, &item.SellingPrice, &autoExplode, &createdStr, &updatedStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning ingredient: %w", err)
		}
		if sku.Valid {
			item.SKU = &sku.String
		}
		item.Type = models.ItemType(typ)
		item.IsAutoExplode = autoExplode == 1
		if item.CreatedAt, item.UpdatedAt, err = parseStamps(createdStr, updatedStr); err != nil {
			return nil, fmt.Errorf("scanning ingredient item %s: %w", item.ID, err)
		}
		ing.Component = &item

		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

func scanRecipeFields(row rowScanner) (*models.Recipe, error) {
	var recipe models.Recipe
	var instructions sql.NullString
	var active int
	var createdStr, updatedStr string

	err := row.Scan(
		&recipe.ID, &recipe.OutputItemID, &recipe.BatchSize, &instructions, &active, &createdStr, &updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning recipe: %w", err)
	}

	if instructions.Valid {
		recipe.Instructions = instructions.String
	}
	recipe.IsActive = active == 1
	if recipe.CreatedAt, recipe.UpdatedAt, err = parseStamps(createdStr, updatedStr); err != nil {
		return nil, fmt.Errorf("scanning recipe %s: %w", recipe.ID, err)
	}

	return &recipe, nil
}
