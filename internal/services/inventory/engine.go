package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prudhvimanvith/Gourmet/internal/config"
	"github.com/prudhvimanvith/Gourmet/internal/database"
	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/repository"
)

// Engine explodes composite items through their recipes into ledger
// debits on leaf items. All reads and writes of one call share the
// caller's transaction and run one ingredient at a time.
type Engine struct {
	items   *repository.ItemRepository
	recipes *repository.RecipeRepository
	ledger  *Ledger
	policy  config.MissingRecipePolicy
	logger  *slog.Logger
}

// NewEngine creates a deduction engine writing through ledger.
func NewEngine(db *database.DB, ledger *Ledger, policy config.MissingRecipePolicy, logger *slog.Logger) *Engine {
	if policy == "" {
		policy = config.MissingRecipePassThrough
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		items:   repository.NewItemRepository(db),
		recipes: repository.NewRecipeRepository(db),
		ledger:  ledger,
		policy:  policy,
		logger:  logger,
	}
}

// Deduct consumes qty units of itemID as a sale.
func (e *Engine) Deduct(ctx context.Context, tx *sql.Tx, itemID string, qty float64, refID string) (*DeductionResult, error) {
	return e.DeductAs(ctx, tx, itemID, qty, refID, models.TransactionTypeSale)
}

// DeductAs consumes qty units of itemID, typing every leaf debit as typ.
func (e *Engine) DeductAs(ctx context.Context, tx *sql.Tx, itemID string, qty float64, refID string, typ models.TransactionType) (*DeductionResult, error) {
	return e.deduct(ctx, tx, deduction{itemID: itemID, qty: qty, refID: refID, typ: typ})
}

// ConsumeRecipe debits the ingredients needed to make qty units of item
// with recipe. item starts on the walk path, so an ingredient graph that
// leads back to it is reported as a cycle.
func (e *Engine) ConsumeRecipe(ctx context.Context, tx *sql.Tx, item *models.Item, recipe *models.Recipe, qty float64, refID string, typ models.TransactionType) (*DeductionResult, error) {
	if tx == nil {
		return nil, ErrNoTransaction
	}
	if err := validQuantity("quantity", qty); err != nil {
		return nil, err
	}

	w := e.newWalk(tx, refID, typ, "")
	w.push(item)
	if err := w.explode(ctx, recipe, qty, 1); err != nil {
		return nil, err
	}
	return w.result, nil
}

type deduction struct {
	itemID string
	qty    float64
	refID  string
	typ    models.TransactionType
	note   string
}

func (e *Engine) deduct(ctx context.Context, tx *sql.Tx, d deduction) (*DeductionResult, error) {
	if tx == nil {
		return nil, ErrNoTransaction
	}
	if err := required("item_id", d.itemID); err != nil {
		return nil, err
	}
	if err := validQuantity("quantity", d.qty); err != nil {
		return nil, err
	}

	w := e.newWalk(tx, d.refID, d.typ, d.note)
	if err := w.deduct(ctx, d.itemID, d.qty, 0); err != nil {
		return nil, err
	}
	return w.result, nil
}

// ============================================================================
// WALK
// ============================================================================

// walk is the state of one depth-first explosion.
type walk struct {
	engine *Engine
	tx     *sql.Tx
	refID  string
	typ    models.TransactionType
	note   string

	path   []string
	onPath map[string]bool
	result *DeductionResult
}

func (e *Engine) newWalk(tx *sql.Tx, refID string, typ models.TransactionType, note string) *walk {
	return &walk{
		engine: e,
		tx:     tx,
		refID:  refID,
		typ:    typ,
		note:   note,
		onPath: make(map[string]bool),
		result: &DeductionResult{},
	}
}

func (w *walk) push(item *models.Item) {
	w.path = append(w.path, item.Name)
	w.onPath[item.ID] = true
}

func (w *walk) pop(item *models.Item) {
	w.path = w.path[:len(w.path)-1]
	delete(w.onPath, item.ID)
}

func (w *walk) deduct(ctx context.Context, itemID string, qty float64, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	item, err := w.engine.items.GetByID(ctx, w.tx, itemID)
	if err != nil {
		return err
	}

	if w.onPath[item.ID] {
		path := append(append([]string(nil), w.path...), item.Name)
		return &models.CycleError{Path: path}
	}

	if !item.IsExplodable() {
		return w.debit(ctx, item, qty, depth)
	}

	recipe, err := w.engine.recipes.GetActiveByOutputItem(ctx, w.tx, item.ID)
	if errors.Is(err, models.ErrNotFound) {
		if w.engine.policy == config.MissingRecipeStrict {
			return fmt.Errorf("deducting %s: %w", item.Name, models.ErrMissingRecipe)
		}
		w.engine.logger.Warn("no active recipe for explodable item; deducting directly",
			"item_id", item.ID,
			"item", item.Name,
			"type", item.Type,
			"reference_id", w.refID,
		)
		w.result.Fallbacks = append(w.result.Fallbacks, item.ID)
		return w.debit(ctx, item, qty, depth)
	}
	if err != nil {
		return err
	}

	w.push(item)
	defer w.pop(item)
	return w.explode(ctx, recipe, qty, depth+1)
}

func (w *walk) explode(ctx context.Context, recipe *models.Recipe, qty float64, depth int) error {
	for _, ing := range recipe.Ingredients {
		required := ing.Required(qty, recipe.BatchSize)
		if err := w.deduct(ctx, ing.ComponentItemID, required, depth); err != nil {
			return err
		}
	}
	return nil
}

func (w *walk) debit(ctx context.Context, item *models.Item, qty float64, depth int) error {
	_, err := w.engine.ledger.RecordTransaction(ctx, w.tx, Entry{
		ItemID: item.ID,
		Delta:  -qty,
		Type:   w.typ,
		RefID:  w.refID,
		Note:   w.note,
	})
	if err != nil {
		return fmt.Errorf("debiting %s: %w", item.Name, err)
	}

	w.result.Debits = append(w.result.Debits, Debit{
		ItemID:   item.ID,
		ItemName: item.Name,
		Quantity: qty,
		Depth:    depth,
	})
	return nil
}
