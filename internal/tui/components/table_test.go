package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func stockColumns() []Column {
	return []Column{
		{Title: "Name", Width: 12},
		{Title: "Stock", Width: 8, Align: lipgloss.Right},
	}
}

func TestNewTable(t *testing.T) {
	table := NewTable(stockColumns())
	if !table.Empty() {
		t.Error("new table should be empty")
	}
	if table.SelectedRow() != nil {
		t.Error("empty table should have no selected row")
	}
}

func TestTable_Navigation(t *testing.T) {
	table := NewTable([]Column{{Title: "Name", Width: 10}})
	table.SetRows([][]string{{"Flour"}, {"Water"}, {"Yeast"}, {"Tomato"}, {"Cheese"}})
	table.SetVisibleRows(2)

	table.MoveUp()
	if table.Selected() != 0 {
		t.Errorf("MoveUp at top: selected = %d, want 0", table.Selected())
	}

	table.MoveDown()
	table.MoveDown()
	if got := table.SelectedRow()[0]; got != "Yeast" {
		t.Errorf("selected row = %s, want Yeast", got)
	}

	table.GoToBottom()
	table.MoveDown()
	if table.Selected() != 4 {
		t.Errorf("MoveDown at bottom: selected = %d, want 4", table.Selected())
	}

	table.GoToTop()
	if table.Selected() != 0 {
		t.Errorf("GoToTop: selected = %d, want 0", table.Selected())
	}
}

func TestTable_SetRowsClampsCursor(t *testing.T) {
	table := NewTable(stockColumns())
	table.SetRows([][]string{{"Flour", "1"}, {"Water", "2"}, {"Yeast", "3"}})
	table.GoToBottom()

	table.SetRows([][]string{{"Flour", "1"}})
	if table.Selected() != 0 {
		t.Errorf("selected = %d after shrinking rows, want 0", table.Selected())
	}
}

func TestTable_Marks(t *testing.T) {
	table := NewTable(stockColumns())
	table.SetRows([][]string{{"Flour", "1"}, {"Yeast", "0"}})
	table.Mark(1)

	if !table.IsMarked(1) || table.IsMarked(0) {
		t.Error("only row 1 should be marked")
	}

	table.SetRows([][]string{{"Flour", "1"}, {"Yeast", "0"}})
	if table.IsMarked(1) {
		t.Error("SetRows should clear marks")
	}
}

func TestTable_Render(t *testing.T) {
	table := NewTable(stockColumns())
	table.SetRows([][]string{{"Pizza Dough Extra Long", "12.5"}})
	table.SetPagination(1, 3, 61)

	out := table.Render()
	for _, want := range []string{"Name", "Stock", "Pizza Dough…", "Page 1/3 | 61 total"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "    12.5") {
		t.Errorf("stock column should be right aligned:\n%s", out)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		in    string
		width int
		align lipgloss.Position
		want  string
	}{
		{"abc", 5, lipgloss.Left, "abc  "},
		{"abc", 5, lipgloss.Right, "  abc"},
		{"abc", 5, lipgloss.Center, " abc "},
		{"abcdef", 4, lipgloss.Left, "abc…"},
		{"abcd", 4, lipgloss.Left, "abcd"},
	}
	for _, tt := range tests {
		if got := fit(tt.in, tt.width, tt.align); got != tt.want {
			t.Errorf("fit(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
