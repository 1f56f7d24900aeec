package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe describes how BatchSize units of the output item are made.
type Recipe struct {
	ID           string
	OutputItemID string
	BatchSize    float64
	Instructions string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Ingredients in recipe order
	Ingredients []RecipeIngredient

	// Joined fields
	OutputItem *Item
}

// RecipeIngredient is one edge of the recipe graph.
type RecipeIngredient struct {
	ID              string
	RecipeID        string
	ComponentItemID string
	Position        int
	Quantity        float64 // per batch
	WastagePercent  float64

	// Joined fields
	Component *Item
}

// ScaleRequirement returns how much of a component is consumed when qty
// units of the output are made from a recipe of the given batch size.
func ScaleRequirement(perBatch, qty, batchSize, wastagePercent float64) float64 {
	return perBatch * (qty / batchSize) * (1 + wastagePercent/100)
}

// Required returns the component quantity needed for qty units of output.
func (ri RecipeIngredient) Required(qty, batchSize float64) float64 {
	return ScaleRequirement(ri.Quantity, qty, batchSize, ri.WastagePercent)
}

// WastageFactor returns 1 + wastage/100 as a decimal.
func (ri RecipeIngredient) WastageFactor() decimal.Decimal {
	return decimal.NewFromInt(1).Add(decimal.NewFromFloat(ri.WastagePercent).Div(decimal.NewFromInt(100)))
}

// ComponentIDs returns the distinct component item ids in recipe order.
func (r *Recipe) ComponentIDs() []string {
	seen := make(map[string]bool, len(r.Ingredients))
	ids := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if seen[ing.ComponentItemID] {
			continue
		}
		seen[ing.ComponentItemID] = true
		ids = append(ids, ing.ComponentItemID)
	}
	return ids
}
