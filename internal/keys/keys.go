// Package keys contains keybinding definitions for the tree browser.
package keys

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/zjrosen/kinship/internal/config"
)

// KeyMap defines the keybindings for the browser.
type KeyMap struct {
	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Parent key.Binding

	// Focus
	Refocus  key.Binding
	Back     key.Binding
	Original key.Binding

	// Query
	Search    key.Binding
	Execute   key.Binding
	Clear     key.Binding
	NextMatch key.Binding
	PrevMatch key.Binding
	SaveView  key.Binding
	NextView  key.Binding
	PrevView  key.Binding

	// Details pane
	Details     key.Binding
	DetailsDown key.Binding
	DetailsUp   key.Binding

	// General
	Reload key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		Parent: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "go to parent"),
		),

		Refocus: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "focus entry"),
		),
		Back: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("backspace", "previous focus"),
		),
		Original: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "back to root"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "query"),
		),
		Execute: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run query"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear query"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "previous match"),
		),
		SaveView: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save as view"),
		),
		NextView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next view"),
		),
		PrevView: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous view"),
		),

		Details: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "toggle details"),
		),
		DetailsDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("ctrl+d", "scroll details down"),
		),
		DetailsUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("ctrl+u", "scroll details up"),
		),

		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload document"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Refocus, k.Back, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Parent},                      // Navigation
		{k.Refocus, k.Back, k.Original},                                // Focus
		{k.Search, k.Execute, k.Clear, k.NextMatch, k.PrevMatch},       // Query
		{k.Details, k.DetailsDown, k.DetailsUp},                        // Details
		{k.SaveView, k.NextView, k.PrevView, k.Reload, k.Help, k.Quit}, // General
	}
}

// ApplyConfig returns a copy of k with the configured overrides applied.
// The help text keeps its description and shows the new keys.
func (k KeyMap) ApplyConfig(kb config.KeybindingsConfig) (KeyMap, error) {
	if err := config.ValidateKeybindings(kb); err != nil {
		return k, err
	}

	for _, pair := range kb.Pairs() {
		if pair.Keys == "" {
			continue
		}
		binding := k.binding(pair.Action)
		if binding == nil {
			return k, fmt.Errorf("keybindings.%s: unknown action", pair.Action)
		}
		keys := config.SplitKeys(pair.Keys)
		*binding = key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(keys[0], binding.Help().Desc),
		)
	}
	return k, nil
}

func (k *KeyMap) binding(action string) *key.Binding {
	switch action {
	case "search":
		return &k.Search
	case "refocus":
		return &k.Refocus
	case "back":
		return &k.Back
	case "original":
		return &k.Original
	case "details":
		return &k.Details
	case "reload":
		return &k.Reload
	case "next_view":
		return &k.NextView
	case "prev_view":
		return &k.PrevView
	}
	return nil
}
