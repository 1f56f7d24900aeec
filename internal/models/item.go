package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemType classifies catalog items by how the deduction engine treats them.
type ItemType string

const (
	ItemTypeRawMaterial  ItemType = "RAW_MATERIAL"
	ItemTypeIntermediate ItemType = "INTERMEDIATE"
	ItemTypeDish         ItemType = "DISH"
	ItemTypeModifier     ItemType = "MODIFIER"
)

func (t ItemType) String() string {
	return string(t)
}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeRawMaterial, ItemTypeIntermediate, ItemTypeDish, ItemTypeModifier:
		return true
	}
	return false
}

// ItemTypes lists every item type in display order.
func ItemTypes() []ItemType {
	return []ItemType{ItemTypeRawMaterial, ItemTypeIntermediate, ItemTypeDish, ItemTypeModifier}
}

// Item is a catalog entry. CurrentStock is a denormalized counter kept in
// step with the ledger and must only change through a ledger transaction.
type Item struct {
	ID            string
	Name          string
	SKU           *string
	Type          ItemType
	Unit          string
	CurrentStock  float64
	MinThreshold  float64
	CostPerUnit   decimal.Decimal
	SellingPrice  decimal.NullDecimal
	IsAutoExplode bool // only meaningful for INTERMEDIATE
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsExplodable reports whether consuming the item expands into its recipe
// instead of debiting the item's own stock. Dishes and phantom
// intermediates are explodable.
func (i *Item) IsExplodable() bool {
	switch i.Type {
	case ItemTypeDish:
		return true
	case ItemTypeIntermediate:
		return i.IsAutoExplode
	}
	return false
}

// IsStocked reports whether low-stock alerts apply to the item.
func (i *Item) IsStocked() bool {
	return i.Type == ItemTypeRawMaterial || i.Type == ItemTypeIntermediate
}

// StockTolerance bounds float noise in stock quantities. Requirements come
// from the wastage formula, so a debit that exactly covers stock can land a
// few ulps below zero.
const StockTolerance = 1e-9

// IsLowStock reports whether a stocked item is at or below its threshold.
func (i *Item) IsLowStock() bool {
	return i.IsStocked() && i.CurrentStock <= i.MinThreshold
}

// HasDirectCost reports whether cost_per_unit is entered by hand. Costs of
// intermediates and dishes come from the cost rollup.
func (i *Item) HasDirectCost() bool {
	return i.Type == ItemTypeRawMaterial || i.Type == ItemTypeModifier
}

// Price returns the selling price, or zero when the item has none.
func (i *Item) Price() decimal.Decimal {
	if !i.SellingPrice.Valid {
		return decimal.Zero
	}
	return i.SellingPrice.Decimal
}

// ItemFilter holds filter criteria for listing items.
type ItemFilter struct {
	Type     *ItemType
	Search   string // matches name or sku
	LowStock bool
}

// ItemList is a paginated list of items.
type ItemList struct {
	Items      []*Item
	Total      int
	Page       int
	TotalPages int
}
