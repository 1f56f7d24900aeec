package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prudhvimanvith/Gourmet/internal/config"
	"github.com/prudhvimanvith/Gourmet/internal/models"
	"github.com/prudhvimanvith/Gourmet/internal/tui/views/ledger"
	"github.com/prudhvimanvith/Gourmet/internal/tui/views/stock"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// MaxContentWidth is the maximum width for content display
const MaxContentWidth = 120

// Module represents a view module in the application.
type Module string

const (
	ModuleStock  Module = "stock"
	ModuleLedger Module = "ledger"
	ModuleHelp   Module = "help"
)

// Inventory is the ledger side the TUI reads from.
type Inventory interface {
	ledger.History
	LowStock(ctx context.Context) ([]*models.Item, error)
	VerifyLedger(ctx context.Context) ([]models.LedgerDrift, error)
}

// App is the main Bubble Tea application model.
type App struct {
	inventory Inventory
	config    *config.Config

	board   *stock.Board
	journal *ledger.Journal

	// UI state
	theme       *Theme
	keys        KeyMap
	width       int
	height      int
	ready       bool
	quitting    bool
	showConfirm bool

	currentModule  Module
	previousModule Module

	alerts   []Alert
	lowCount int
}

// Alert represents a status line message.
type Alert struct {
	Level   AlertLevel
	Message string
	Time    time.Time
}

// AlertLevel indicates the severity of an alert.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertCritical
)

type boardLoadedMsg struct{ err error }

type journalLoadedMsg struct{ err error }

// statusMsg carries the low stock count and ledger drift found on refresh.
type statusMsg struct {
	low   []*models.Item
	drift []models.LedgerDrift
	err   error
}

// New creates a new App instance.
func New(inv Inventory, catalog stock.Catalog, cfg *config.Config) *App {
	return &App{
		inventory:     inv,
		config:        cfg,
		board:         stock.NewBoard(catalog),
		journal:       ledger.NewJournal(inv),
		theme:         NewTheme(cfg.Display.ColorScheme),
		keys:          DefaultKeyMap(),
		currentModule: ModuleStock,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadBoard(), a.loadStatus())
}

func (a *App) loadBoard() tea.Cmd {
	return func() tea.Msg {
		return boardLoadedMsg{err: a.board.Load(context.Background())}
	}
}

func (a *App) loadJournal() tea.Cmd {
	return func() tea.Msg {
		return journalLoadedMsg{err: a.journal.Load(context.Background())}
	}
}

func (a *App) loadStatus() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		low, err := a.inventory.LowStock(ctx)
		if err != nil {
			return statusMsg{err: err}
		}
		drift, err := a.inventory.VerifyLedger(ctx)
		return statusMsg{low: low, drift: drift, err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.board.SetHeight(msg.Height)
		a.journal.SetHeight(msg.Height)
		return a, nil

	case boardLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load stock: "+msg.err.Error())
		}
		return a, nil

	case journalLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load ledger: "+msg.err.Error())
		}
		return a, nil

	case statusMsg:
		a.applyStatus(msg)
		return a, nil
	}

	return a, nil
}

func (a *App) applyStatus(msg statusMsg) {
	if msg.err != nil {
		a.AddAlert(AlertWarning, "Status check failed: "+msg.err.Error())
		return
	}
	a.lowCount = len(msg.low)
	switch {
	case len(msg.drift) > 0:
		a.AddAlert(AlertCritical, fmt.Sprintf("%d item(s) disagree with the ledger", len(msg.drift)))
	case len(msg.low) > 0:
		names := make([]string, 0, len(msg.low))
		for _, it := range msg.low {
			names = append(names, it.Name)
		}
		a.AddAlert(AlertWarning, "Low stock: "+strings.Join(names, ", "))
	}
}

// handleKeyPress processes key press events.
func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit confirmation is modal
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			a.quitting = true
			return a, tea.Quit
		case "n", "N", "esc":
			a.showConfirm = false
		}
		return a, nil
	}

	if a.keys.IsQuit(msg) {
		a.showConfirm = true
		return a, nil
	}

	if module := a.keys.ModuleFor(msg); module != "" {
		return a, a.switchTo(module)
	}

	if a.keys.Back.Matches(msg) {
		if a.currentModule == ModuleHelp && a.previousModule != "" {
			a.currentModule = a.previousModule
			a.previousModule = ""
		}
		return a, nil
	}

	if a.keys.Refresh.Matches(msg) {
		return a, tea.Batch(a.reloadCurrent(), a.loadStatus())
	}

	switch a.currentModule {
	case ModuleStock:
		return a, a.handleStockKeys(msg)
	case ModuleLedger:
		return a, a.handleLedgerKeys(msg)
	}
	return a, nil
}

func (a *App) switchTo(module Module) tea.Cmd {
	if module == ModuleHelp {
		if a.currentModule != ModuleHelp {
			a.previousModule = a.currentModule
		}
		a.currentModule = ModuleHelp
		return nil
	}
	a.currentModule = module
	return a.reloadCurrent()
}

func (a *App) reloadCurrent() tea.Cmd {
	switch a.currentModule {
	case ModuleStock:
		return a.loadBoard()
	case ModuleLedger:
		return a.loadJournal()
	}
	return nil
}

func (a *App) handleStockKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case a.keys.Up.Matches(msg):
		a.board.MoveUp()
	case a.keys.Down.Matches(msg):
		a.board.MoveDown()
	case a.keys.PageUp.Matches(msg):
		a.board.PrevPage()
		return a.loadBoard()
	case a.keys.PageDown.Matches(msg):
		a.board.NextPage()
		return a.loadBoard()
	case a.keys.TypeFilter.Matches(msg):
		a.board.CycleType()
		return a.loadBoard()
	case a.keys.LowOnly.Matches(msg):
		a.board.ToggleLowOnly()
		return a.loadBoard()
	case a.keys.Journal.Matches(msg):
		if item := a.board.SelectedItem(); item != nil {
			a.journal.FilterItem(item.ID, item.Name)
			a.currentModule = ModuleLedger
			return a.loadJournal()
		}
	}
	return nil
}

func (a *App) handleLedgerKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case a.keys.Up.Matches(msg):
		a.journal.MoveUp()
	case a.keys.Down.Matches(msg):
		a.journal.MoveDown()
	case a.keys.PageUp.Matches(msg):
		a.journal.PrevPage()
		return a.loadJournal()
	case a.keys.PageDown.Matches(msg):
		a.journal.NextPage()
		return a.loadJournal()
	case a.keys.AllItems.Matches(msg):
		a.journal.FilterItem("", "")
		return a.loadJournal()
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initializing..."
	}

	if a.quitting {
		return a.theme.Title.Render("Closing " + a.config.Kitchen.Name + "...")
	}

	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(a.renderAlertBar())
	b.WriteString("\n")

	contentHeight := a.height - 6 // header, alert, footer
	if a.showConfirm {
		b.WriteString(a.renderConfirmDialog(contentHeight))
	} else {
		b.WriteString(a.renderContent(contentHeight))
	}

	b.WriteString("\n")
	b.WriteString(a.renderFooter())
	return b.String()
}

func (a *App) renderHeader() string {
	title := fmt.Sprintf("GOURMET INVENTORY v%s", Version)

	info := a.config.Kitchen.Name
	if a.lowCount > 0 {
		info += fmt.Sprintf(" | LOW: %d", a.lowCount)
	}

	spacing := max(a.width-lipgloss.Width(title)-lipgloss.Width(info)-2, 1)
	header := a.theme.Header.Render(title) +
		strings.Repeat(" ", spacing) +
		a.theme.Header.Render(info)

	return header + "\n" + a.theme.DrawDoubleLine(a.width)
}

func (a *App) renderAlertBar() string {
	now := time.Now().Format(a.config.Display.DateFormat + " " + a.config.Display.TimeFormat)

	var alertText string
	if len(a.alerts) > 0 {
		alert := a.alerts[0]
		switch alert.Level {
		case AlertCritical:
			alertText = a.theme.AlertCrit.Render("CRITICAL: " + alert.Message)
		case AlertWarning:
			alertText = a.theme.AlertWarn.Render("WARNING: " + alert.Message)
		default:
			alertText = a.theme.Alert.Render("INFO: " + alert.Message)
		}
	} else {
		alertText = a.theme.Muted.Render("Stock levels normal")
	}

	return a.theme.Value.Render(now) + a.theme.StatusDivider.Render() + alertText
}

func (a *App) renderContent(height int) string {
	contentWidth := min(a.width, MaxContentWidth)

	var content string
	switch a.currentModule {
	case ModuleStock:
		content = a.board.Render(contentWidth)
	case ModuleLedger:
		content = a.journal.Render(contentWidth)
	case ModuleHelp:
		content = a.renderHelp()
	}

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top)

	return style.Render(lipgloss.NewStyle().Width(contentWidth).Render(content))
}

func (a *App) renderHelp() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ HELP ═══"))
	b.WriteString("\n\n")

	sections := []struct {
		title string
		items [][2]string
	}{
		{"NAVIGATION", [][2]string{
			{"F1", "Help"},
			{"F2", "Stock board"},
			{"F3", "Ledger journal"},
			{"F10/q", "Quit"},
		}},
		{"CONTROLS", [][2]string{
			{"Up/Down", "Move selection"},
			{"PgUp/Dn", "Page"},
			{"r", "Refresh"},
			{"t", "Cycle item type (stock)"},
			{"l", "Low stock only (stock)"},
			{"Enter", "Ledger for item (stock)"},
			{"a", "All items (ledger)"},
		}},
	}
	for _, sec := range sections {
		b.WriteString(a.theme.Subtitle.Render(sec.title))
		b.WriteString("\n\n")
		for _, item := range sec.items {
			b.WriteString(a.theme.Primary.Render(fmt.Sprintf("    %-8s  %s", item[0], item[1])))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(a.theme.Muted.Render("Press Esc to return"))
	return b.String()
}

func (a *App) renderConfirmDialog(height int) string {
	dialog := a.theme.Box.Render(
		a.theme.Title.Render("CONFIRM EXIT") + "\n\n" +
			a.theme.Base.Render("Are you sure you want to exit?") + "\n\n" +
			a.theme.Label.Render("[Y]es  [N]o"),
	)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(dialog)
}

func (a *App) renderFooter() string {
	return a.theme.DrawHorizontalLine(a.width) + "\n" + a.theme.Footer.Render(a.keys.StatusBarHelp())
}

// AddAlert adds a new alert to the display.
func (a *App) AddAlert(level AlertLevel, message string) {
	a.alerts = append([]Alert{{
		Level:   level,
		Message: message,
		Time:    time.Now(),
	}}, a.alerts...)

	// Keep only last 10 alerts
	if len(a.alerts) > 10 {
		a.alerts = a.alerts[:10]
	}
}

// ClearAlerts removes all alerts.
func (a *App) ClearAlerts() {
	a.alerts = nil
}

// Run starts the TUI application.
func Run(ctx context.Context, inv Inventory, catalog stock.Catalog, cfg *config.Config) error {
	p := tea.NewProgram(New(inv, catalog, cfg), tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
