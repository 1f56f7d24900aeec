package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prudhvimanvith/Gourmet/internal/config"
	"github.com/prudhvimanvith/Gourmet/internal/services/inventory"
	"github.com/prudhvimanvith/Gourmet/internal/services/recipes"
	"github.com/prudhvimanvith/Gourmet/internal/testutil"
)

// newKitchenApp builds an App over a migrated in-memory database holding the
// pizza dataset, with real services behind it.
func newKitchenApp(t *testing.T) (*App, testutil.PizzaKitchen) {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	kitchen := testutil.SeedPizzaKitchen(t, tdb, true)

	inv := inventory.NewService(tdb.DB, inventory.Options{})
	catalog := recipes.NewService(tdb.DB, recipes.Options{})

	return New(inv, catalog, config.Default()), kitchen
}

// newTestApp creates an App whose window is already 120x40 and ready.
func newTestApp(t *testing.T) *App {
	t.Helper()

	app, _ := newKitchenApp(t)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app
}

// run executes cmd and feeds every resulting message back into the app,
// unpacking batches. It stops at tea.Quit.
func run(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, c := range msg {
			run(app, c)
		}
	case tea.QuitMsg:
		return
	default:
		_, next := app.Update(msg)
		run(app, next)
	}
}

// keyMsg creates a tea.KeyMsg for a rune key.
func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// specialKeyMsg creates a tea.KeyMsg for a special key type.
func specialKeyMsg(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

// press sends a key to the app and drains the command it returns.
func press(app *App, msg tea.KeyMsg) {
	_, cmd := app.Update(msg)
	run(app, cmd)
}
