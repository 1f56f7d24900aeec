// Package ledger provides the ledger journal view.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/tui/components"
)

// History pages through ledger rows.
type History interface {
	History(ctx context.Context, filter models.TransactionFilter, page models.Pagination) (*models.TransactionList, error)
}

// Journal shows ledger rows newest first, optionally narrowed to one item.
type Journal struct {
	history  History
	table    *components.Table
	rows     []*models.InventoryTransaction
	page     models.Pagination
	filter   models.TransactionFilter
	itemName string
	err      error
}

// NewJournal creates a ledger journal.
func NewJournal(history History) *Journal {
	columns := []components.Column{
		{Title: "Time", Width: 19},
		{Title: "Item", Width: 20},
		{Title: "Change", Width: 10, Align: lipgloss.Right},
		{Title: "Type", Width: 10},
		{Title: "Reference", Width: 22},
		{Title: "Note", Width: 16},
	}

	table := components.NewTable(columns)
	table.SetVisibleRows(20)
	table.Focus(true)

	return &Journal{
		history: history,
		table:   table,
		page:    models.Pagination{Page: 1, PageSize: 20},
	}
}

// Load fetches the current page of ledger rows.
func (j *Journal) Load(ctx context.Context) error {
	j.err = nil
	result, err := j.history.History(ctx, j.filter, j.page)
	if err != nil {
		j.err = err
		return err
	}

	j.rows = result.Transactions
	rows := make([][]string, len(j.rows))
	for i, t := range j.rows {
		rows[i] = []string{
			t.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			t.ItemName,
			fmt.Sprintf("%+g", t.QuantityChange),
			string(t.TransactionType),
			t.ReferenceID,
			t.Note,
		}
	}
	j.table.SetRows(rows)
	for i, t := range j.rows {
		if t.QuantityChange < 0 {
			j.table.Mark(i)
		}
	}
	j.table.SetPagination(result.Page, result.TotalPages, result.Total)
	return nil
}

// FilterItem narrows the journal to one item. An empty id shows every row.
func (j *Journal) FilterItem(id, name string) {
	j.filter.ItemID = id
	j.itemName = name
	j.page.Page = 1
}

// NextPage moves to the next page.
func (j *Journal) NextPage() {
	j.page.Page++
}

// PrevPage moves to the previous page.
func (j *Journal) PrevPage() {
	if j.page.Page > 1 {
		j.page.Page--
	}
}

// MoveUp moves the selection up.
func (j *Journal) MoveUp() {
	j.table.MoveUp()
}

// MoveDown moves the selection down.
func (j *Journal) MoveDown() {
	j.table.MoveDown()
}

// SetHeight fits the table to the available rows.
func (j *Journal) SetHeight(h int) {
	j.table.SetVisibleRows(h - 10)
}

// Render renders the journal.
func (j *Journal) Render(width int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))

	var s strings.Builder
	s.WriteString(titleStyle.Render("=== LEDGER JOURNAL ==="))
	s.WriteString("\n\n")

	if j.itemName != "" {
		s.WriteString(labelStyle.Render("Item: "))
		s.WriteString(valueStyle.Render(j.itemName))
		s.WriteString("\n\n")
	}

	if j.err != nil {
		s.WriteString(errStyle.Render("Error: " + j.err.Error()))
		s.WriteString("\n\n")
	}

	if j.table.Empty() {
		s.WriteString(labelStyle.Render("No ledger rows."))
		s.WriteString("\n")
	} else {
		s.WriteString(j.table.Render())
	}

	s.WriteString("\n")
	if width < 80 {
		s.WriteString(labelStyle.Render("a:All r:Reload"))
	} else {
		s.WriteString(labelStyle.Render("Up/Down:Select  a:All items  r:Reload  PgUp/Dn:Page"))
	}
	return s.String()
}
