package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/prudhvimanvith/Gourmet/internal/database"
	"github.com/prudhvimanvith/Gourmet/internal/database/seed"
	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/services/inventory"
	"github.com/prudhvimanvith/Gourmet/internal/tui"
)

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "migrate",
			Usage: "apply, roll back or list schema migrations",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "down", Usage: "roll back the latest migration"},
				&cli.IntFlag{Name: "to", Usage: "migrate up or down to this version", Value: -1},
				&cli.BoolFlag{Name: "status", Usage: "list migrations and exit"},
				&cli.IntFlag{Name: "force", Usage: "mark this version applied and clean without running it", Value: -1},
			},
			Action: migrateAction,
		},
		{
			Name:  "seed",
			Usage: "load the demo pizza kitchen",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "phantom-dough", Usage: "make the dough a phantom intermediate"},
				&cli.IntFlag{Name: "orders", Usage: "number of random sample orders to process"},
				&cli.Int64Flag{Name: "random-seed", Value: seed.DefaultConfig().RandomSeed},
			},
			Action: seedAction,
		},
		{
			Name:  "items",
			Usage: "list catalog items",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "type", Usage: "RAW_MATERIAL, INTERMEDIATE, DISH or MODIFIER"},
				&cli.BoolFlag{Name: "low", Usage: "only items at or below their threshold"},
				&cli.StringFlag{Name: "search", Usage: "match name or sku"},
			},
			Action: itemsAction,
		},
		{
			Name:      "stock",
			Usage:     "show an item with its recent ledger rows",
			ArgsUsage: "<item id, sku or name>",
			Action:    stockAction,
		},
		{
			Name:  "order",
			Usage: "process a sales order",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "line", Aliases: []string{"l"}, Usage: "item=qty, repeatable", Required: true},
				&cli.StringFlag{Name: "id", Usage: "order id (generated when empty)"},
			},
			Action: orderAction,
		},
		{
			Name:  "prep",
			Usage: "record a prep batch of an intermediate",
			Flags: []cli.Flag{
				itemFlag(),
				&cli.Float64Flag{Name: "qty", Usage: "units produced", Required: true},
				&cli.StringFlag{Name: "ref", Usage: "batch reference (generated when empty)"},
			},
			Action: prepAction,
		},
		{
			Name:  "adjust",
			Usage: "correct stock by a signed delta",
			Flags: []cli.Flag{
				itemFlag(),
				&cli.Float64Flag{Name: "delta", Required: true},
				&cli.StringFlag{Name: "reason"},
			},
			Action: adjustAction,
		},
		{
			Name:  "purchase",
			Usage: "receive stock from a supplier",
			Flags: []cli.Flag{
				itemFlag(),
				&cli.Float64Flag{Name: "qty", Required: true},
				&cli.StringFlag{Name: "ref", Usage: "invoice or delivery reference"},
			},
			Action: purchaseAction,
		},
		{
			Name:  "waste",
			Usage: "record spoiled or discarded stock",
			Flags: []cli.Flag{
				itemFlag(),
				&cli.Float64Flag{Name: "qty", Required: true},
				&cli.StringFlag{Name: "reason", Required: true},
			},
			Action: wasteAction,
		},
		{
			Name:  "recost",
			Usage: "recalculate recipe cost",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "recipe", Usage: "recipe id"},
				&cli.StringFlag{Name: "item", Usage: "recalculate every recipe consuming this item"},
			},
			Action: recostAction,
		},
		{
			Name:   "verify",
			Usage:  "check every stock counter against its ledger",
			Action: verifyAction,
		},
		{
			Name:  "ledger",
			Usage: "list ledger rows",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "item", Usage: "item id, sku or name"},
				&cli.StringFlag{Name: "ref", Usage: "reference id"},
				&cli.IntFlag{Name: "limit", Value: 25},
			},
			Action: ledgerAction,
		},
		{
			Name:   "status",
			Usage:  "show store health, schema version and ledger state",
			Action: statusAction,
		},
		{
			Name:   "tui",
			Usage:  "open the stock board",
			Action: tuiAction,
		},
		{
			Name:  "backup",
			Usage: "write a copy of the sqlite store to the backup directory",
			Action: func(c *cli.Context) error {
				return withEnv(c, func(ctx context.Context, e *env) error {
					path, err := e.db.Backup(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, path)
					return nil
				})
			},
		},
	}
}

func itemFlag() cli.Flag {
	return &cli.StringFlag{Name: "item", Aliases: []string{"i"}, Usage: "item id, sku or name", Required: true}
}

// ============================================================================
// Schema & seed
// ============================================================================

func migrateAction(c *cli.Context) error {
	return withEnv(c, func(ctx context.Context, e *env) error {
		out := c.App.Writer
		if c.Bool("status") {
			migrations, err := e.migrator.Status(ctx)
			if err != nil {
				return err
			}
			w := table(out, "VERSION", "DESCRIPTION", "APPLIED")
			for _, m := range migrations {
				applied := "-"
				if m.Applied {
					applied = "yes"
				}
				fmt.Fprintf(w, "%03d\t%s\t%s\n", m.Version, m.Description, applied)
			}
			return w.Flush()
		}

		if c.Int("force") >= 0 {
			if err := e.migrator.Force(ctx, c.Int("force")); err != nil {
				return err
			}
			fmt.Fprintf(out, "schema forced to version %d\n", c.Int("force"))
			return nil
		}

		var (
			result *database.MigrationResult
			err    error
		)
		switch {
		case c.Int("to") >= 0:
			result, err = e.migrator.MigrateTo(ctx, c.Int("to"))
		case c.Bool("down"):
			result, err = e.migrator.MigrateDown(ctx)
		default:
			result, err = e.migrator.MigrateUp(ctx)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%d migration(s) run, schema at version %d\n", len(result.Applied), result.ToVersion)
		return nil
	})
}

func statusAction(c *cli.Context) error {
	return withEnv(c, func(ctx context.Context, e *env) error {
		w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)

		store := string(e.db.Driver())
		if path := e.db.Path(); path != "" {
			store += " " + path
		}
		fmt.Fprintf(w, "store\t%s\n", store)

		health := "ok"
		if err := e.db.HealthCheck(ctx); err != nil {
			health = err.Error()
		}
		fmt.Fprintf(w, "health\t%s\n", health)

		version, err := e.migrator.CurrentVersion(ctx)
		if err != nil {
			return err
		}
		pending, err := e.migrator.Pending(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "schema\tversion %d, %d pending\n", version, len(pending))

		stats, err := e.db.GetStats(ctx)
		if err != nil {
			return err
		}
		if stats.PageSize > 0 {
			fmt.Fprintf(w, "size\t%d bytes, wal %d bytes\n", stats.SizeBytes, stats.WALSizeBytes)
			fmt.Fprintf(w, "pages\t%d of %d bytes, %d free\n", stats.PageCount, stats.PageSize, stats.FreePageCount)
			fmt.Fprintf(w, "journal\t%s\n", stats.JournalMode)
		}

		low, err := e.inventory.LowStock(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "low stock\t%d item(s)\n", len(low))

		drifts, err := e.inventory.VerifyLedger(ctx)
		if err != nil {
			return err
		}
		ledger := "consistent"
		if len(drifts) > 0 {
			ledger = fmt.Sprintf("%d item(s) drifted", len(drifts))
		}
		fmt.Fprintf(w, "ledger\t%s\n", ledger)

		return w.Flush()
	})
}

func seedAction(c *cli.Context) error {
	return withEnv(c, func(ctx context.Context, e *env) error {
		cfg := seed.Config{
			PhantomDough: c.Bool("phantom-dough"),
			SampleOrders: c.Int("orders"),
			RandomSeed:   c.Int64("random-seed"),
		}
		result, err := seed.NewGenerator(e.catalog, e.inventory, cfg).Generate(ctx)
		if errors.Is(err, seed.ErrAlreadySeeded) {
			e.logger.Warn("catalog already has items, skipping seed generation")
			return nil
		}
		if err != nil {
			return fmt.Errorf("generating seed data: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "seeded %d items, %d recipes, %d orders\n",
			len(result.Items), result.Recipes, result.Orders)
		return nil
	})
}

// ============================================================================
// Catalog views
// ============================================================================

func itemsAction(c *cli.Context) error {
	return withEnv(c, func(ctx context.Context, e *env) error {
		filter := models.ItemFilter{LowStock: c.Bool("low"), Search: c.String("search")}
		if raw := c.String("type"); raw != "" {
			typ := models.ItemType(strings.ToUpper(raw))
			if !typ.Valid() {
				return models.NewValidation("type", "unknown item type "+raw)
			}
			filter.Type = &typ
		}

		w := table(c.App.Writer, "NAME", "TYPE", "STOCK", "MIN", "UNIT", "COST", "PRICE", "")
		page := models.Pagination{Page: 1, PageSize: 100}
		for {
			list, err := e.catalog.ListItems(ctx, filter, page)
			if err != nil {
				return err
			}
			for _, it := range list.Items {
				price := "-"
				if it.SellingPrice.Valid {
					price = it.SellingPrice.Decimal.StringFixed(2)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					it.Name, it.Type, qty(it.CurrentStock), qty(it.MinThreshold), it.Unit,
					it.CostPerUnit.StringFixed(4), price, lowMarker(it))
			}
			if page.Page >= list.TotalPages {
				break
			}
			page.Page++
		}
		return w.Flush()
	})
}

func stockAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("stock takes exactly one item", 2)
	}
	return withEnv(c, func(ctx context.Context, e *env) error {
		item, err := e.catalog.FindItem(ctx, c.Args().First())
		if err != nil {
			return err
		}
		out := c.App.Writer
		fmt.Fprintf(out, "%s (%s)\n", item.Name, item.Type)
		fmt.Fprintf(out, "  stock:     %s %s %s\n", qty(item.CurrentStock), item.Unit, lowMarker(item))
		fmt.Fprintf(out, "  threshold: %s\n", qty(item.MinThreshold))
		fmt.Fprintf(out, "  cost:      %s %s/%s\n", item.CostPerUnit.StringFixed(4), e.cfg.Kitchen.Currency, item.Unit)
		if item.IsExplodable() {
			fmt.Fprintln(out, "  explodes into its recipe on consumption")
		}

		if recipe, err := e.catalog.GetRecipe(ctx, item.ID); err == nil {
			fmt.Fprintf(out, "\nrecipe (batch %s, active %t)\n", qty(recipe.BatchSize), recipe.IsActive)
			for _, ing := range recipe.Ingredients {
				name := ing.ComponentItemID
				if ing.Component != nil {
					name = ing.Component.Name
				}
				fmt.Fprintf(out, "  %-20s %s (+%s%% wastage)\n", name, qty(ing.Quantity), qty(ing.WastagePercent))
			}
		} else if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		history, err := e.inventory.History(ctx, models.TransactionFilter{ItemID: item.ID}, models.Pagination{Page: 1, PageSize: 10})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\nrecent movements")
		return writeLedger(out, history.Transactions)
	})
}

// ============================================================================
// Stock movements
// ============================================================================

func orderAction(c *cli.Context) error {
	return withEnv(c, func(ctx context.Context, e *env) error {
		lines, err := parseLines(c.StringSlice("line"))
		if err != nil {
			return err
		}
		for i := range lines {
			item, err := e.catalog.FindItem(ctx, lines[i].ItemID)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			lines[i].ItemID = item.ID
		}

		order, err := e.inventory.ProcessOrder(ctx, c.String("id"), lines)
		if err != nil {
			return err
		}

		out := c.App.Writer
		fmt.Fprintf(out, "order %s (%s) %s\n", order.ID, order.POSOrderRef, order.Status)
		w := table(out, "ITEM", "QTY", "PRICE", "LINE")
		for _, oi := range order.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", oi.ItemName, qty(oi.Quantity),
				oi.PriceAtSale.StringFixed(2), oi.LineTotal().StringFixed(2))
		}
		fmt.Fprintf(w, "\t\tTOTAL\t%s %s\n", order.TotalAmount.StringFixed(2), e.cfg.Kitchen.Currency)
		return w.Flush()
	})
}

// parseLines turns "item=qty" arguments into order lines. The item part is
// resolved later, so it may be an id, sku or name.
func parseLines(raw []string) ([]models.OrderLine, error) {
	lines := make([]models.OrderLine, 0, len(raw))
	for i, r := range raw {
		key, value, ok := strings.Cut(r, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, models.NewValidation(fmt.Sprintf("line[%d]", i), "expected item=qty, got "+strconv.Quote(r))
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, models.NewValidation(fmt.Sprintf("line[%d]", i), "quantity is not a number")
		}
		lines = append(lines, models.OrderLine{ItemID: key, Qty: q})
	}
	return lines, nil
}

func prepAction(c *cli.Context) error {
	return withEnv(c, func(ctx context.Context, e *env) error {
		item, err := e.catalog.FindItem(ctx, c.String("item"))
		if err != nil {
			return err
		}
		result, err := e.inventory.ProcessPrep(ctx, item.ID, c.Float64("qty"), c.String("ref"))
		if err != nil {
			return err
		}
		out := c.App.Writer
		fmt.Fprintf(out, "prepped %s %s of %s (%s), stock now %s\n",
			qty(result.Batch.Quantity), result.Item.Unit, result.Item.Name,
			result.Batch.ReferenceID, qty(result.Item.CurrentStock))
		return writeDebits(out, result.Consumed)
	})
}

func adjustAction(c *cli.Context) error {
	return withEnv(c, func(ctx context.Context, e *env) error {
		item, err := e.catalog.FindItem(ctx, c.String("item"))
		if err != nil {
			return err
		}
		txn, err := e.inventory.AdjustStock(ctx, item.ID, c.Float64("delta"), c.String("reason"))
		if err != nil {
			return err
		}
		return writeLedger(c.App.Writer, []*models.InventoryTransaction{txn})
	})
}

func purchaseAction(c *cli.Context) error {
	return withEnv(c, func(ctx context.Context, e *env) error {
		item, err := e.catalog.FindItem(ctx, c.String("item"))
		if err != nil {
			return err
		}
		txn, err := e.inventory.RecordPurchase(ctx, item.ID, c.Float64("qty"), c.String("ref"))
		if err != nil {
			return err
		}
		return writeLedger(c.App.Writer, []*models.InventoryTransaction{txn})
	})
}

func wasteAction(c *cli.Context) error {
	return withEnv(c, func(ctx context.Context, e *env) error {
		item, err := e.catalog.FindItem(ctx, c.String("item"))
		if err != nil {
			return err
		}
		result, err := e.inventory.RecordWastage(ctx, item.ID, c.Float64("qty"), c.String("reason"))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "wastage %s\n", result.ReferenceID)
		return writeDebits(c.App.Writer, result.Consumed)
	})
}

// ============================================================================
// Costing & reconciliation
// ============================================================================

func recostAction(c *cli.Context) error {
	recipeID, itemKey := c.String("recipe"), c.String("item")
	if (recipeID == "") == (itemKey == "") {
		return cli.Exit("recost needs exactly one of --recipe or --item", 2)
	}
	return withEnv(c, func(ctx context.Context, e *env) error {
		if recipeID != "" {
			cost, err := e.catalog.RecalculateCost(ctx, recipeID)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "unit cost %s %s\n", cost.StringFixed(4), e.cfg.Kitchen.Currency)
			return nil
		}

		item, err := e.catalog.FindItem(ctx, itemKey)
		if err != nil {
			return err
		}
		n, err := e.catalog.RecalculateConsumers(ctx, item.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "recalculated %d recipe(s) consuming %s\n", n, item.Name)
		return nil
	})
}

func verifyAction(c *cli.Context) error {
	return withEnv(c, func(ctx context.Context, e *env) error {
		drift, err := e.inventory.VerifyLedger(ctx)
		if err != nil {
			return err
		}
		if len(drift) == 0 {
			fmt.Fprintln(c.App.Writer, "ledger consistent")
			return nil
		}
		w := table(c.App.Writer, "ITEM", "STOCK", "LEDGER", "DIFF")
		for _, d := range drift {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ItemName, qty(d.CurrentStock), qty(d.LedgerSum), qty(d.Difference()))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		return cli.Exit(fmt.Sprintf("%d item(s) disagree with the ledger", len(drift)), 1)
	})
}

func ledgerAction(c *cli.Context) error {
	return withEnv(c, func(ctx context.Context, e *env) error {
		filter := models.TransactionFilter{ReferenceID: c.String("ref")}
		if key := c.String("item"); key != "" {
			item, err := e.catalog.FindItem(ctx, key)
			if err != nil {
				return err
			}
			filter.ItemID = item.ID
		}
		list, err := e.inventory.History(ctx, filter, models.Pagination{Page: 1, PageSize: c.Int("limit")})
		if err != nil {
			return err
		}
		return writeLedger(c.App.Writer, list.Transactions)
	})
}

func tuiAction(c *cli.Context) error {
	return withEnv(c, func(ctx context.Context, e *env) error {
		tui.Version = Version
		tui.BuildTime = BuildTime
		e.logger.Info("starting TUI", "kitchen", e.cfg.Kitchen.Name)
		if err := tui.Run(ctx, e.inventory, e.catalog, e.cfg); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}

// ============================================================================
// Output
// ============================================================================

func table(out io.Writer, headers ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	return w
}

func writeLedger(out io.Writer, rows []*models.InventoryTransaction) error {
	w := table(out, "TIME", "ITEM", "CHANGE", "TYPE", "REF", "NOTE")
	for _, t := range rows {
		name := t.ItemName
		if name == "" {
			name = t.ItemID
		}
		fmt.Fprintf(w, "%s\t%s\t%+g\t%s\t%s\t%s\n",
			t.CreatedAt.Local().Format("2006-01-02 15:04:05"), name, t.QuantityChange,
			t.TransactionType, t.ReferenceID, t.Note)
	}
	return w.Flush()
}

func writeDebits(out io.Writer, r *inventory.DeductionResult) error {
	if r == nil || len(r.Debits) == 0 {
		return nil
	}
	w := table(out, "CONSUMED", "QTY")
	for _, d := range r.Debits {
		fmt.Fprintf(w, "%s%s\t%s\n", strings.Repeat("  ", d.Depth), d.ItemName, qty(d.Quantity))
	}
	for _, id := range r.Fallbacks {
		fmt.Fprintf(w, "(no recipe, debited directly: %s)\t\n", id)
	}
	return w.Flush()
}

func qty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func lowMarker(it *models.Item) string {
	if it.IsLowStock() {
		return "LOW"
	}
	return ""
}
