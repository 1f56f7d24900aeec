package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/notify"
	"github.com/prudhvimanvith/Gourmet/internal/util"
)

// ProcessPrep records a production run of qty units of an intermediate.
// Ingredients are consumed as PREP_OUT and the output is credited as
// PREP_IN in the same transaction. An empty refID gets a generated PREP
// reference.
func (s *Service) ProcessPrep(ctx context.Context, itemID string, qty float64, refID string) (*PrepResult, error) {
	if err := required("item_id", itemID); err != nil {
		return nil, err
	}
	if err := validQuantity("quantity", qty); err != nil {
		return nil, err
	}
	if refID == "" {
		refID = s.refs.Next(util.PrefixPrep)
	}

	var result *PrepResult
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		item, err := s.items.GetByID(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.Type != models.ItemTypeIntermediate {
			return fmt.Errorf("%s is %s, only intermediates can be prepped: %w",
				item.Name, item.Type, models.ErrInvalidItemType)
		}

		recipe, err := s.recipes.GetActiveByOutputItem(ctx, tx, item.ID)
		if err != nil {
			return err
		}

		batch := &models.PrepBatch{
			ID:          util.NewID(),
			ItemID:      item.ID,
			Quantity:    qty,
			ReferenceID: refID,
		}
		if err := s.txns.InsertPrepBatch(ctx, tx, batch); err != nil {
			return err
		}

		consumed, err := s.engine.ConsumeRecipe(ctx, tx, item, recipe, qty, refID, models.TransactionTypePrepOut)
		if err != nil {
			return err
		}

		credit, err := s.ledger.RecordTransaction(ctx, tx, Entry{
			ItemID: item.ID,
			Delta:  qty,
			Type:   models.TransactionTypePrepIn,
			RefID:  refID,
		})
		if err != nil {
			return fmt.Errorf("crediting %s: %w", item.Name, err)
		}

		result = &PrepResult{Batch: batch, Item: item, Consumed: consumed, Credit: credit}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("processing prep: %w", err)
	}

	s.logger.Info("prep recorded",
		"item_id", itemID,
		"item", result.Item.Name,
		"quantity", qty,
		"reference_id", refID,
		"debits", len(result.Consumed.Debits),
	)
	s.afterCommit(ctx, notify.KeyPrepRecorded, notify.PrepRecorded{
		ItemID:      itemID,
		Name:        result.Item.Name,
		Quantity:    qty,
		ReferenceID: refID,
		OccurredAt:  time.Now().UTC(),
	}, result.Consumed.ItemIDs())
	return result, nil
}
