// Package tui provides the terminal stock board for Gourmet.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/prudhvimanvith/Gourmet/internal/config"
)

// Theme contains all style definitions for the TUI.
type Theme struct {
	PrimaryColor   lipgloss.Color
	SecondaryColor lipgloss.Color
	AccentColor    lipgloss.Color
	WarningColor   lipgloss.Color
	ErrorColor     lipgloss.Color

	Base      lipgloss.Style
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Accent    lipgloss.Style
	Muted     lipgloss.Style
	Warning   lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Box      lipgloss.Style

	Alert     lipgloss.Style
	AlertWarn lipgloss.Style
	AlertCrit lipgloss.Style

	StatusDivider lipgloss.Style
}

// palette is the set of colors a scheme chooses.
type palette struct {
	primary, secondary, accent, muted, warning, failure lipgloss.Color
}

var palettes = map[config.ColorScheme]palette{
	config.ColorSchemeGreenPhosphor: {"#00FF00", "#00AA00", "#66FF66", "#006600", "#FFAA00", "#FF4444"},
	config.ColorSchemeAmber:         {"#FFAA00", "#AA7700", "#FFCC66", "#664400", "#FFFF00", "#FF4444"},
	config.ColorSchemeWhite:         {"#FFFFFF", "#AAAAAA", "#FFFFFF", "#666666", "#FFAA00", "#FF4444"},
}

// NewTheme creates a theme for the configured color scheme. Unknown schemes
// fall back to green phosphor.
func NewTheme(scheme config.ColorScheme) *Theme {
	p, ok := palettes[scheme]
	if !ok {
		p = palettes[config.ColorSchemeGreenPhosphor]
	}

	t := &Theme{
		PrimaryColor:   p.primary,
		SecondaryColor: p.secondary,
		AccentColor:    p.accent,
		WarningColor:   p.warning,
		ErrorColor:     p.failure,
	}

	t.Base = lipgloss.NewStyle().Foreground(p.primary)
	t.Primary = lipgloss.NewStyle().Foreground(p.primary)
	t.Secondary = lipgloss.NewStyle().Foreground(p.secondary)
	t.Accent = lipgloss.NewStyle().Foreground(p.accent)
	t.Muted = lipgloss.NewStyle().Foreground(p.muted)
	t.Warning = lipgloss.NewStyle().Foreground(p.warning)

	t.Header = lipgloss.NewStyle().Foreground(p.primary).Bold(true).Padding(0, 1)
	t.Footer = lipgloss.NewStyle().Foreground(p.secondary).Padding(0, 1)
	t.Title = lipgloss.NewStyle().Foreground(p.accent).Bold(true).Padding(0, 1)
	t.Subtitle = lipgloss.NewStyle().Foreground(p.primary).Padding(0, 1)
	t.Label = lipgloss.NewStyle().Foreground(p.secondary)
	t.Value = lipgloss.NewStyle().Foreground(p.primary)
	t.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.secondary).
		Padding(0, 1)

	t.Alert = lipgloss.NewStyle().Foreground(p.primary).Bold(true)
	t.AlertWarn = lipgloss.NewStyle().Foreground(p.warning).Bold(true)
	t.AlertCrit = lipgloss.NewStyle().Foreground(p.failure).Bold(true)

	t.StatusDivider = lipgloss.NewStyle().Foreground(p.muted).SetString(" │ ")

	return t
}

// DrawHorizontalLine draws a horizontal line.
func (t *Theme) DrawHorizontalLine(width int) string {
	return t.Secondary.Render(strings.Repeat("─", max(width, 0)))
}

// DrawDoubleLine draws a double horizontal line.
func (t *Theme) DrawDoubleLine(width int) string {
	return t.Primary.Render(strings.Repeat("═", max(width, 0)))
}
