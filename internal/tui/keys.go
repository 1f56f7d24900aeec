package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines all key bindings for the application.
type KeyMap struct {
	// Navigation
	Up       Key
	Down     Key
	PageUp   Key
	PageDown Key

	// Actions
	Back    Key
	Quit    Key
	Refresh Key

	// Stock board
	TypeFilter Key
	LowOnly    Key
	Journal    Key

	// Ledger journal
	AllItems Key

	// Function keys for module navigation
	F1  Key
	F2  Key
	F3  Key
	F10 Key
}

// Key represents a key binding.
type Key struct {
	Keys    []string
	Help    string
	Enabled bool
}

func bind(help string, keys ...string) Key {
	return Key{Keys: keys, Help: help, Enabled: true}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       bind("up", "up", "k"),
		Down:     bind("down", "down", "j"),
		PageUp:   bind("page up", "pgup", "ctrl+u"),
		PageDown: bind("page down", "pgdown", "ctrl+d"),

		Back:    bind("back", "esc"),
		Quit:    bind("quit", "q", "ctrl+c"),
		Refresh: bind("refresh", "r"),

		TypeFilter: bind("type filter", "t"),
		LowOnly:    bind("low stock only", "l"),
		Journal:    bind("item ledger", "enter"),

		AllItems: bind("all items", "a"),

		F1:  bind("Help", "f1", "?"),
		F2:  bind("Stock", "f2"),
		F3:  bind("Ledger", "f3"),
		F10: bind("Quit", "f10"),
	}
}

// Matches checks if a key message matches this key binding.
func (k Key) Matches(msg tea.KeyMsg) bool {
	if !k.Enabled {
		return false
	}

	keyStr := msg.String()
	for _, key := range k.Keys {
		if keyStr == key {
			return true
		}
	}
	return false
}

// MatchesAny checks if a key message matches any of the provided key bindings.
func MatchesAny(msg tea.KeyMsg, keys ...Key) bool {
	for _, k := range keys {
		if k.Matches(msg) {
			return true
		}
	}
	return false
}

// IsQuit checks if the key message is a quit command.
func (km KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return km.Quit.Matches(msg) || km.F10.Matches(msg)
}

// ModuleFor returns the module a navigation key opens, or "" for other keys.
func (km KeyMap) ModuleFor(msg tea.KeyMsg) Module {
	switch {
	case km.F1.Matches(msg):
		return ModuleHelp
	case km.F2.Matches(msg):
		return ModuleStock
	case km.F3.Matches(msg):
		return ModuleLedger
	default:
		return ""
	}
}

// StatusBarHelp returns the help text for the status bar.
func (km KeyMap) StatusBarHelp() string {
	return "[F1]Help [F2]Stock [F3]Ledger [r]Refresh [F10]Quit"
}
