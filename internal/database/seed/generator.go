package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/services/inventory"
	"github.com/prudhvimanvith/Gourmet/internal/services/recipes"
)

// ErrAlreadySeeded is returned when the catalog already has items.
var ErrAlreadySeeded = errors.New("catalog is not empty")

// Config configures the seed data generator.
type Config struct {
	// Make the dough a phantom intermediate instead of a stocked one
	PhantomDough bool

	// Number of random sample orders to process after the catalog is built
	SampleOrders int
	RandomSeed   int64
}

// DefaultConfig returns a default seed configuration.
func DefaultConfig() Config {
	return Config{
		SampleOrders: 0,
		RandomSeed:   450,
	}
}

// Result summarizes what was generated.
type Result struct {
	Items   map[string]*models.Item
	Recipes int
	Orders  int
}

// Generator builds the demo kitchen through the catalog and inventory
// services, so every stock level is backed by ledger rows.
type Generator struct {
	catalog   *recipes.Service
	inventory *inventory.Service
	cfg       Config
	rng       *rand.Rand
	items     map[string]*models.Item
}

// NewGenerator creates a new seed data generator.
func NewGenerator(catalog *recipes.Service, inv *inventory.Service, cfg Config) *Generator {
	return &Generator{
		catalog:   catalog,
		inventory: inv,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.RandomSeed)),
		items:     make(map[string]*models.Item),
	}
}

// Generate creates all seed data.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	existing, err := g.catalog.ListItems(ctx, models.ItemFilter{}, models.Pagination{Page: 1, PageSize: 1})
	if err != nil {
		return nil, fmt.Errorf("checking catalog: %w", err)
	}
	if existing.Total > 0 {
		return nil, ErrAlreadySeeded
	}

	slog.Info("starting seed data generation",
		"items", len(Items),
		"recipes", len(Recipes),
		"sample_orders", g.cfg.SampleOrders,
	)

	if err := g.generateItems(ctx); err != nil {
		return nil, fmt.Errorf("generating items: %w", err)
	}
	if err := g.generateRecipes(ctx); err != nil {
		return nil, fmt.Errorf("generating recipes: %w", err)
	}

	orders, err := g.generateOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("generating orders: %w", err)
	}

	slog.Info("seed data generation complete", "items", len(g.items), "orders", orders)

	return &Result{Items: g.items, Recipes: len(Recipes), Orders: orders}, nil
}

func (g *Generator) generateItems(ctx context.Context) error {
	for _, def := range Items {
		input := recipes.CreateItemInput{
			Name:          def.Name,
			SKU:           def.SKU,
			Type:          def.Type,
			Unit:          def.Unit,
			MinThreshold:  def.MinThreshold,
			IsAutoExplode: def.Phantom,
			InitialStock:  def.Stock,
		}
		if def.Name == PizzaDough && g.cfg.PhantomDough {
			input.IsAutoExplode = true
		}
		if def.Cost != "" {
			cost, err := decimal.NewFromString(def.Cost)
			if err != nil {
				return fmt.Errorf("parsing cost of %s: %w", def.Name, err)
			}
			input.CostPerUnit = cost
		}
		if def.Price != "" {
			price, err := decimal.NewFromString(def.Price)
			if err != nil {
				return fmt.Errorf("parsing price of %s: %w", def.Name, err)
			}
			input.SellingPrice = &price
		}

		item, err := g.catalog.CreateItem(ctx, input)
		if err != nil {
			return fmt.Errorf("creating %s: %w", def.Name, err)
		}
		g.items[def.Name] = item
	}

	slog.Debug("items generated", "count", len(g.items))
	return nil
}

func (g *Generator) generateRecipes(ctx context.Context) error {
	for _, def := range Recipes {
		output, ok := g.items[def.Output]
		if !ok {
			return fmt.Errorf("recipe output %s is not in the catalog", def.Output)
		}

		input := recipes.CreateRecipeInput{
			OutputItemID: output.ID,
			BatchSize:    def.BatchSize,
			Instructions: def.Instructions,
		}
		for _, ing := range def.Ingredients {
			component, ok := g.items[ing.Item]
			if !ok {
				return fmt.Errorf("ingredient %s of %s is not in the catalog", ing.Item, def.Output)
			}
			input.Ingredients = append(input.Ingredients, recipes.IngredientInput{
				ComponentItemID: component.ID,
				Quantity:        ing.Quantity,
				WastagePercent:  ing.Wastage,
			})
		}

		recipe, err := g.catalog.CreateRecipe(ctx, input)
		if err != nil {
			return fmt.Errorf("creating recipe for %s: %w", def.Output, err)
		}
		g.items[def.Output] = recipe.OutputItem
	}

	slog.Debug("recipes generated", "count", len(Recipes))
	return nil
}

func (g *Generator) generateOrders(ctx context.Context) (int, error) {
	for i := 0; i < g.cfg.SampleOrders; i++ {
		lines := []models.OrderLine{{
			ItemID: g.items[MenuItems[g.rng.Intn(len(MenuItems))]].ID,
			Qty:    float64(1 + g.rng.Intn(3)),
		}}
		if g.rng.Intn(2) == 0 {
			lines = append(lines, models.OrderLine{
				ItemID: g.items[AddOns[g.rng.Intn(len(AddOns))]].ID,
				Qty:    1,
			})
		}

		if _, err := g.inventory.ProcessOrder(ctx, "", lines); err != nil {
			return i, fmt.Errorf("sample order %d: %w", i+1, err)
		}
	}
	return g.cfg.SampleOrders, nil
}
