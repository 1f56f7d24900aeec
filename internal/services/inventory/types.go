package inventory

import (
	"log/slog"
	"math"

	"github.com/prudhvimanvith/Gourmet/internal/config"
	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/notify"
)

// Options configures the inventory service.
type Options struct {
	MissingRecipe config.MissingRecipePolicy
	StockFloor    config.StockFloorPolicy
	Publisher     notify.Publisher
	Logger        *slog.Logger
}

// OptionsFromConfig builds service options from the engine section.
func OptionsFromConfig(cfg config.EngineConfig) Options {
	return Options{
		MissingRecipe: cfg.MissingRecipe,
		StockFloor:    cfg.StockFloor,
	}
}

// Entry is a single stock movement to record.
type Entry struct {
	ItemID string
	Delta  float64
	Type   models.TransactionType
	RefID  string
	Note   string
}

// Debit is one leaf ledger debit written by the deduction engine.
type Debit struct {
	ItemID   string
	ItemName string
	Quantity float64 // positive amount removed
	Depth    int     // explosion levels above the leaf
}

// DeductionResult lists what a deduction wrote.
type DeductionResult struct {
	Debits []Debit

	// Explodable items without an active recipe that were debited directly
	Fallbacks []string
}

// Total returns the summed debit for itemID across the whole explosion.
func (r *DeductionResult) Total(itemID string) float64 {
	var total float64
	for _, d := range r.Debits {
		if d.ItemID == itemID {
			total += d.Quantity
		}
	}
	return total
}

// ItemIDs returns the distinct debited item ids in debit order.
func (r *DeductionResult) ItemIDs() []string {
	seen := make(map[string]bool, len(r.Debits))
	var ids []string
	for _, d := range r.Debits {
		if !seen[d.ItemID] {
			seen[d.ItemID] = true
			ids = append(ids, d.ItemID)
		}
	}
	return ids
}

// PrepResult describes a recorded production batch.
type PrepResult struct {
	Batch    *models.PrepBatch
	Item     *models.Item
	Consumed *DeductionResult
	Credit   *models.InventoryTransaction
}

// WastageResult describes recorded wastage. Composite items are exploded,
// so Consumed can list several leaf debits.
type WastageResult struct {
	ReferenceID string
	Consumed    *DeductionResult
}

func validQuantity(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.NewValidation(field, "must be a finite number")
	}
	if v <= 0 {
		return models.NewValidation(field, "must be greater than 0")
	}
	return nil
}

func validDelta(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.NewValidation(field, "must be a finite number")
	}
	if v == 0 {
		return models.NewValidation(field, "must not be zero")
	}
	return nil
}

func required(field, v string) error {
	if v == "" {
		return models.NewValidation(field, "is required")
	}
	return nil
}
