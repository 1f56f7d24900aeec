// Package recipes manages the item catalog, the recipe graph and the cost
// rollup over it.
package recipes

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/prudhvimanvith/Gourmet/internal/config"
	"github.com/prudhvimanvith/Gourmet/internal/database"
	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/repository"
	"github.com/prudhvimanvith/Gourmet/internal/services/inventory"
	"github.com/prudhvimanvith/Gourmet/internal/util"
)

// Options configures the recipes service.
type Options struct {
	// Recompute every transitive consumer when an item's cost changes
	Cascade bool
	Logger  *slog.Logger
}

// Service provides item and recipe management.
type Service struct {
	db      *database.DB
	items   *repository.ItemRepository
	recipes *repository.RecipeRepository
	ledger  *inventory.Ledger
	refs    *util.RefGenerator
	cascade bool
	logger  *slog.Logger
}

// NewService creates a new recipes service.
func NewService(db *database.DB, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:      db,
		items:   repository.NewItemRepository(db),
		recipes: repository.NewRecipeRepository(db),
		// Opening stock is always a credit, so the floor never applies
		ledger:  inventory.NewLedger(db, config.StockFloorAllow),
		refs:    util.NewRefGenerator(),
		cascade: opts.Cascade,
		logger:  logger.With("component", "recipes"),
	}
}

// ============================================================================
// ITEMS
// ============================================================================

// CreateItem adds an item to the catalog. Opening stock is booked as a
// PURCHASE in the same transaction, so the item's ledger balances from
// the start.
func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (*models.Item, error) {
	if err := util.Validate(input); err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, models.NewValidation("Type", fmt.Sprintf("unknown item type %q", input.Type))
	}
	if input.CostPerUnit.IsNegative() {
		return nil, models.NewValidation("CostPerUnit", "must not be negative")
	}
	if input.SellingPrice != nil && input.SellingPrice.IsNegative() {
		return nil, models.NewValidation("SellingPrice", "must not be negative")
	}

	item := &models.Item{
		ID:            util.NewID(),
		Name:          strings.TrimSpace(input.Name),
		Type:          input.Type,
		Unit:          input.Unit,
		MinThreshold:  input.MinThreshold,
		CostPerUnit:   input.CostPerUnit,
		IsAutoExplode: input.IsAutoExplode,
	}
	if input.SKU != "" {
		sku := input.SKU
		item.SKU = &sku
	}
	if input.SellingPrice != nil {
		item.SellingPrice = decimal.NewNullDecimal(*input.SellingPrice)
	}
	if !item.HasDirectCost() && !item.CostPerUnit.IsZero() {
		return nil, models.NewValidation("CostPerUnit", "is derived from the recipe for "+string(item.Type))
	}
	if item.IsAutoExplode && item.Type != models.ItemTypeIntermediate {
		return nil, models.NewValidation("IsAutoExplode", "only applies to INTERMEDIATE items")
	}

	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := s.items.Create(ctx, tx, item); err != nil {
			return err
		}
		if input.InitialStock <= 0 {
			return nil
		}
		_, err := s.ledger.RecordTransaction(ctx, tx, inventory.Entry{
			ItemID: item.ID,
			Delta:  input.InitialStock,
			Type:   models.TransactionTypePurchase,
			RefID:  s.refs.Next(util.PrefixPurchase),
			Note:   "opening stock",
		})
		if err != nil {
			return err
		}
		item.CurrentStock = input.InitialStock
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	s.logger.Info("item created", "item_id", item.ID, "name", item.Name, "type", item.Type)
	return item, nil
}

// GetItem retrieves an item by ID.
func (s *Service) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return s.items.GetByID(ctx, nil, id)
}

// FindItem resolves an item by ID, SKU or exact name, in that order.
func (s *Service) FindItem(ctx context.Context, key string) (*models.Item, error) {
	if util.IsValidID(key) {
		item, err := s.items.GetByID(ctx, nil, key)
		if err == nil {
			return item, nil
		}
	}
	if item, err := s.items.GetBySKU(ctx, nil, key); err == nil {
		return item, nil
	}
	return s.items.GetByName(ctx, nil, key)
}

// ListItems lists items with filtering and pagination.
func (s *Service) ListItems(ctx context.Context, filter models.ItemFilter, page models.Pagination) (*models.ItemList, error) {
	return s.items.List(ctx, filter, page)
}

// LowStock returns raw materials and intermediates at or below threshold.
func (s *Service) LowStock(ctx context.Context) ([]*models.Item, error) {
	return s.items.ListLowStock(ctx, nil)
}

// UpdateItem changes an item's descriptive fields. Cost may only be set by
// hand on raw materials and modifiers; with cascading enabled the change
// propagates to every recipe that consumes the item.
func (s *Service) UpdateItem(ctx context.Context, id string, input UpdateItemInput) (*models.Item, error) {
	if err := util.Validate(input); err != nil {
		return nil, err
	}

	var item *models.Item
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		item, err = s.applyItemUpdate(ctx, tx, id, input)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	s.logger.Info("item updated", "item_id", item.ID, "name", item.Name)
	return item, nil
}

func (s *Service) applyItemUpdate(ctx context.Context, tx *sql.Tx, id string, input UpdateItemInput) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, models.NewValidation("Name", "is required")
		}
		item.Name = name
	}
	if input.SKU != nil {
		if *input.SKU == "" {
			item.SKU = nil
		} else {
			sku := *input.SKU
			item.SKU = &sku
		}
	}
	if input.Unit != nil {
		item.Unit = *input.Unit
	}
	if input.MinThreshold != nil {
		item.MinThreshold = *input.MinThreshold
	}
	if input.ClearSellingPrice {
		item.SellingPrice = decimal.NullDecimal{}
	} else if input.SellingPrice != nil {
		if input.SellingPrice.IsNegative() {
			return nil, models.NewValidation("SellingPrice", "must not be negative")
		}
		item.SellingPrice = decimal.NewNullDecimal(*input.SellingPrice)
	}
	if input.IsAutoExplode != nil {
		if *input.IsAutoExplode && item.Type != models.ItemTypeIntermediate {
			return nil, models.NewValidation("IsAutoExplode", "only applies to INTERMEDIATE items")
		}
		item.IsAutoExplode = *input.IsAutoExplode
	}

	if err := s.items.Update(ctx, tx, item); err != nil {
		return nil, err
	}

	if input.CostPerUnit == nil || input.CostPerUnit.Equal(item.CostPerUnit) {
		return item, nil
	}
	if !item.HasDirectCost() {
		return nil, fmt.Errorf("cost of %s %s comes from its recipe: %w", item.Type, item.Name, models.ErrInvalidItemType)
	}
	if input.CostPerUnit.IsNegative() {
		return nil, models.NewValidation("CostPerUnit", "must not be negative")
	}
	if err := s.items.UpdateCost(ctx, tx, item.ID, *input.CostPerUnit); err != nil {
		return nil, err
	}
	item.CostPerUnit = *input.CostPerUnit

	if s.cascade {
		if err := s.cascadeFrom(ctx, tx, item.ID); err != nil {
			return nil, err
		}
	}
	return item, nil
}
