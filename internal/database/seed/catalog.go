// Package seed populates a database with a demo pizza kitchen.
package seed

import "github.com/prudhvimanvith/Gourmet/internal/models"

// ItemSpec describes a catalog item to create.
type ItemSpec struct {
	Name         string
	SKU          string
	Type         models.ItemType
	Unit         string
	Cost         string
	Price        string
	MinThreshold float64
	Stock        float64
	Phantom      bool
}

// IngredientSpec is a recipe line referring to an item by name.
type IngredientSpec struct {
	Item     string
	Quantity float64
	Wastage  float64
}

// RecipeSpec describes the recipe of an item.
type RecipeSpec struct {
	Output       string
	BatchSize    float64
	Instructions string
	Ingredients  []IngredientSpec
}

// Item names used by the demo data.
const (
	Flour       = "Flour"
	Water       = "Water"
	Yeast       = "Yeast"
	Tomato      = "Tomato"
	Cheese      = "Cheese"
	OliveOil    = "Olive Oil"
	Basil       = "Basil"
	PizzaDough  = "Pizza Dough"
	TomatoSauce = "Tomato Sauce"
	Margherita  = "Margherita Pizza"
	Marinara    = "Marinara Pizza"
	ChiliOil    = "Chili Oil"
	ExtraCheese = "Extra Cheese"
)

// Items is the demo catalog. Raw materials start at 100 units and the
// dough at 10.
var Items = []ItemSpec{
	{Name: Flour, SKU: "RM-FLOUR", Type: models.ItemTypeRawMaterial, Unit: "kg", Cost: "1.50", MinThreshold: 10, Stock: 100},
	{Name: Water, SKU: "RM-WATER", Type: models.ItemTypeRawMaterial, Unit: "l", Cost: "0.10", MinThreshold: 10, Stock: 100},
	{Name: Yeast, SKU: "RM-YEAST", Type: models.ItemTypeRawMaterial, Unit: "g", Cost: "0.05", MinThreshold: 100, Stock: 100},
	{Name: Tomato, SKU: "RM-TOMATO", Type: models.ItemTypeRawMaterial, Unit: "kg", Cost: "2.00", MinThreshold: 5, Stock: 100},
	{Name: Cheese, SKU: "RM-CHEESE", Type: models.ItemTypeRawMaterial, Unit: "kg", Cost: "8.00", MinThreshold: 5, Stock: 100},
	{Name: OliveOil, SKU: "RM-OIL", Type: models.ItemTypeRawMaterial, Unit: "l", Cost: "9.00", MinThreshold: 1, Stock: 100},
	{Name: Basil, SKU: "RM-BASIL", Type: models.ItemTypeRawMaterial, Unit: "bunch", Cost: "1.20", MinThreshold: 2, Stock: 100},
	{Name: PizzaDough, SKU: "IN-DOUGH", Type: models.ItemTypeIntermediate, Unit: "kg", MinThreshold: 2, Stock: 10},
	{Name: TomatoSauce, SKU: "IN-SAUCE", Type: models.ItemTypeIntermediate, Unit: "kg", MinThreshold: 0, Phantom: true},
	{Name: Margherita, SKU: "DS-MARG", Type: models.ItemTypeDish, Unit: "pcs", Price: "12.00"},
	{Name: Marinara, SKU: "DS-MARI", Type: models.ItemTypeDish, Unit: "pcs", Price: "10.00"},
	{Name: ChiliOil, SKU: "MD-CHILI", Type: models.ItemTypeModifier, Unit: "portion", Cost: "0.20", Price: "0.50", Stock: 50},
	{Name: ExtraCheese, SKU: "MD-XCHEESE", Type: models.ItemTypeDish, Unit: "portion", Price: "2.00"},
}

// Recipes is the demo recipe graph, listed so components come first.
var Recipes = []RecipeSpec{
	{
		Output:       PizzaDough,
		BatchSize:    5,
		Instructions: "Mix and knead",
		Ingredients: []IngredientSpec{
			{Item: Flour, Quantity: 3},
			{Item: Water, Quantity: 1.5},
			{Item: Yeast, Quantity: 50},
		},
	},
	{
		Output:       TomatoSauce,
		BatchSize:    2,
		Instructions: "Crush, season and simmer",
		Ingredients: []IngredientSpec{
			{Item: Tomato, Quantity: 2.5, Wastage: 10},
			{Item: OliveOil, Quantity: 0.1},
			{Item: Basil, Quantity: 1},
		},
	},
	{
		Output:       Margherita,
		BatchSize:    1,
		Instructions: "Bake at 450F",
		Ingredients: []IngredientSpec{
			{Item: PizzaDough, Quantity: 0.3},
			{Item: Tomato, Quantity: 0.1, Wastage: 5},
			{Item: Cheese, Quantity: 0.15},
		},
	},
	{
		Output:       Marinara,
		BatchSize:    1,
		Instructions: "Bake at 450F, finish with oil",
		Ingredients: []IngredientSpec{
			{Item: PizzaDough, Quantity: 0.3},
			{Item: TomatoSauce, Quantity: 0.15},
			{Item: OliveOil, Quantity: 0.01},
		},
	},
	{
		Output:    ExtraCheese,
		BatchSize: 1,
		Ingredients: []IngredientSpec{
			{Item: Cheese, Quantity: 0.05},
		},
	},
}

// MenuItems are the dishes sample orders pick from.
var MenuItems = []string{Margherita, Marinara}

// AddOns are modifiers sample orders may attach.
var AddOns = []string{ChiliOil, ExtraCheese}
