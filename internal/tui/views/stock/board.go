// Package stock provides the stock board view.
package stock

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/tui/components"
)

// Catalog lists items for the board.
type Catalog interface {
	ListItems(ctx context.Context, filter models.ItemFilter, page models.Pagination) (*models.ItemList, error)
}

// Board lists catalog items with their stock, threshold and cost. Items at
// or below their threshold are marked LOW.
type Board struct {
	catalog Catalog
	table   *components.Table
	items   []*models.Item
	page    models.Pagination
	filter  models.ItemFilter
	typeIdx int // index into ItemTypes, -1 for all
	err     error
}

// NewBoard creates a stock board.
func NewBoard(catalog Catalog) *Board {
	columns := []components.Column{
		{Title: "Name", Width: 24},
		{Title: "Type", Width: 12},
		{Title: "Stock", Width: 10, Align: lipgloss.Right},
		{Title: "Min", Width: 8, Align: lipgloss.Right},
		{Title: "Unit", Width: 7},
		{Title: "Cost", Width: 10, Align: lipgloss.Right},
		{Title: "", Width: 4},
	}

	table := components.NewTable(columns)
	table.SetVisibleRows(20)
	table.Focus(true)

	return &Board{
		catalog: catalog,
		table:   table,
		page:    models.Pagination{Page: 1, PageSize: 20},
		typeIdx: -1,
	}
}

// Load fetches the current page of items.
func (b *Board) Load(ctx context.Context) error {
	b.err = nil
	result, err := b.catalog.ListItems(ctx, b.filter, b.page)
	if err != nil {
		b.err = err
		return err
	}

	b.items = result.Items
	rows := make([][]string, len(b.items))
	for i, it := range b.items {
		marker := ""
		if it.IsLowStock() {
			marker = "LOW"
		}
		rows[i] = []string{
			it.Name,
			shortType(it.Type),
			formatQty(it.CurrentStock),
			formatQty(it.MinThreshold),
			it.Unit,
			it.CostPerUnit.StringFixed(4),
			marker,
		}
	}
	b.table.SetRows(rows)
	for i, it := range b.items {
		if it.IsLowStock() {
			b.table.Mark(i)
		}
	}
	b.table.SetPagination(result.Page, result.TotalPages, result.Total)
	return nil
}

// ToggleLowOnly switches between all items and low stock only.
func (b *Board) ToggleLowOnly() {
	b.filter.LowStock = !b.filter.LowStock
	b.page.Page = 1
}

// CycleType steps the type filter through every item type, then back to all.
func (b *Board) CycleType() {
	types := models.ItemTypes()
	b.typeIdx++
	if b.typeIdx >= len(types) {
		b.typeIdx = -1
		b.filter.Type = nil
	} else {
		typ := types[b.typeIdx]
		b.filter.Type = &typ
	}
	b.page.Page = 1
}

// NextPage moves to the next page.
func (b *Board) NextPage() {
	b.page.Page++
}

// PrevPage moves to the previous page.
func (b *Board) PrevPage() {
	if b.page.Page > 1 {
		b.page.Page--
	}
}

// MoveUp moves the selection up.
func (b *Board) MoveUp() {
	b.table.MoveUp()
}

// MoveDown moves the selection down.
func (b *Board) MoveDown() {
	b.table.MoveDown()
}

// SetHeight fits the table to the available rows.
func (b *Board) SetHeight(h int) {
	b.table.SetVisibleRows(h - 10)
}

// SelectedItem returns the item under the cursor.
func (b *Board) SelectedItem() *models.Item {
	idx := b.table.Selected()
	if idx >= 0 && idx < len(b.items) {
		return b.items[idx]
	}
	return nil
}

// Render renders the board.
func (b *Board) Render(width int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))

	var s strings.Builder
	s.WriteString(titleStyle.Render("=== STOCK BOARD ==="))
	s.WriteString("\n\n")

	var filters []string
	if b.filter.Type != nil {
		filters = append(filters, string(*b.filter.Type))
	}
	if b.filter.LowStock {
		filters = append(filters, "low stock only")
	}
	if len(filters) > 0 {
		s.WriteString(labelStyle.Render("Filter: "))
		s.WriteString(valueStyle.Render(strings.Join(filters, ", ")))
		s.WriteString("\n\n")
	}

	if b.err != nil {
		s.WriteString(errStyle.Render("Error: " + b.err.Error()))
		s.WriteString("\n\n")
	}

	if b.table.Empty() {
		s.WriteString(labelStyle.Render("No items found."))
		s.WriteString("\n")
	} else {
		s.WriteString(b.table.Render())
	}

	s.WriteString("\n")
	if width < 80 {
		s.WriteString(labelStyle.Render("t:Type l:Low r:Reload"))
	} else {
		s.WriteString(labelStyle.Render("Up/Down:Select  t:Type  l:Low only  r:Reload  PgUp/Dn:Page"))
	}
	return s.String()
}

func shortType(t models.ItemType) string {
	switch t {
	case models.ItemTypeRawMaterial:
		return "RAW"
	case models.ItemTypeIntermediate:
		return "PREP"
	default:
		return string(t)
	}
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
