// Package styles contains Lip Gloss style definitions.
package styles

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#CCCCCC"} // Entry names
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"} // Keys, ids
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, help text, tree guides
	TextPlaceholderColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#777777"} // Input placeholders

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Accent for matches and focused elements
	AccentColor = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#54A0FF"}

	// Selection indicator color (used for ">" prefix in the tree)
	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}

	// KQL syntax highlighting colors (Catppuccin Mocha)
	KQLKeywordColor  = lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"} // mauve
	KQLSelectorColor = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"} // blue
	KQLOperatorColor = lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"} // red
	KQLFieldColor    = lipgloss.AdaptiveColor{Light: "#179299", Dark: "#94E2D5"} // teal
	KQLStringColor   = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"} // yellow
	KQLParenColor    = lipgloss.AdaptiveColor{Light: "#7287FD", Dark: "#B4BEFE"} // lavender
	KQLCommaColor    = lipgloss.AdaptiveColor{Light: "#9CA0B0", Dark: "#6C7086"} // overlay0

	// Kind badge palette, picked by hashing the kind name
	kindColors = []lipgloss.AdaptiveColor{
		{Light: "#43BF6D", Dark: "#73F59F"},
		{Light: "#874BFD", Dark: "#7D56F4"},
		{Light: "#FF9F43", Dark: "#FF9F43"},
		{Light: "#54A0FF", Dark: "#54A0FF"},
		{Light: "#D20F39", Dark: "#F38BA8"},
		{Light: "#179299", Dark: "#94E2D5"},
	}

	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	KeyStyle   = lipgloss.NewStyle().Foreground(TextSecondaryColor)
	MatchStyle = lipgloss.NewStyle().Foreground(AccentColor).Bold(true)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	// Error display
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true)
)

// KindStyle returns the badge style for an entry kind. The same kind always
// gets the same color.
func KindStyle(kind string) lipgloss.Style {
	h := fnv.New32a()
	_, _ = h.Write([]byte(kind))
	return lipgloss.NewStyle().Foreground(kindColors[h.Sum32()%uint32(len(kindColors))])
}

// ApplyTheme applies custom theme colors from configuration.
// Empty strings are ignored, keeping the default values.
func ApplyTheme(accent, muted, errorColor string) {
	if accent != "" {
		AccentColor = lipgloss.AdaptiveColor{Light: accent, Dark: accent}
		MatchStyle = MatchStyle.Foreground(AccentColor)
	}
	if muted != "" {
		TextMutedColor = lipgloss.AdaptiveColor{Light: muted, Dark: muted}
		MutedStyle = MutedStyle.Foreground(TextMutedColor)
	}
	if errorColor != "" {
		StatusErrorColor = lipgloss.AdaptiveColor{Light: errorColor, Dark: errorColor}
		ErrorStyle = ErrorStyle.Foreground(StatusErrorColor)
	}
}
