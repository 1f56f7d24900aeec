package recipes

import (
	"github.com/shopspring/decimal"

	"github.com/prudhvimanvith/Gourmet/internal/models"
)

// CreateItemInput contains data for creating a catalog item.
type CreateItemInput struct {
	Name          string          `validate:"required,max=200"`
	SKU           string          `validate:"max=64"`
	Type          models.ItemType `validate:"required"`
	Unit          string          `validate:"required,max=32"`
	MinThreshold  float64         `validate:"gte=0"`
	CostPerUnit   decimal.Decimal // RAW_MATERIAL and MODIFIER only
	SellingPrice  *decimal.Decimal
	IsAutoExplode bool

	// Opening stock, booked as a PURCHASE ledger row
	InitialStock float64 `validate:"gte=0"`
}

// UpdateItemInput contains the item fields to change. Nil fields are left
// as they are.
type UpdateItemInput struct {
	Name              *string  `validate:"omitempty,min=1,max=200"`
	SKU               *string  `validate:"omitempty,max=64"`
	Unit              *string  `validate:"omitempty,min=1,max=32"`
	MinThreshold      *float64 `validate:"omitempty,gte=0"`
	CostPerUnit       *decimal.Decimal
	SellingPrice      *decimal.Decimal
	ClearSellingPrice bool
	IsAutoExplode     *bool
}

// IngredientInput is one recipe line.
type IngredientInput struct {
	ComponentItemID string  `validate:"required"`
	Quantity        float64 `validate:"gt=0"`
	WastagePercent  float64 `validate:"gte=0"`
}

// CreateRecipeInput contains data for creating the recipe of an item.
type CreateRecipeInput struct {
	OutputItemID string  `validate:"required"`
	BatchSize    float64 `validate:"gt=0"`
	Instructions string
	Ingredients  []IngredientInput `validate:"required,min=1,dive"`
}

// UpdateRecipeInput replaces a recipe wholesale. Item optionally updates
// the output item in the same transaction.
type UpdateRecipeInput struct {
	BatchSize    float64 `validate:"gt=0"`
	Instructions string
	IsActive     *bool
	Ingredients  []IngredientInput `validate:"required,min=1,dive"`
	Item         *UpdateItemInput
}

func toIngredients(in []IngredientInput) []models.RecipeIngredient {
	out := make([]models.RecipeIngredient, len(in))
	for i, ing := range in {
		out[i] = models.RecipeIngredient{
			ComponentItemID: ing.ComponentItemID,
			Quantity:        ing.Quantity,
			WastagePercent:  ing.WastagePercent,
		}
	}
	return out
}
