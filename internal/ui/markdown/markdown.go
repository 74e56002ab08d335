// Package markdown renders entry descriptions for the terminal.
package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Styles accepted by New. "auto" picks dark or light from the terminal.
var Styles = []string{"auto", "dark", "light", "notty", "ascii"}

// noMarginStyle drops the document margin so descriptions line up with the
// rest of the details pane.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Renderer wraps a glamour renderer with a fixed wrap width.
type Renderer struct {
	renderer *glamour.TermRenderer
	width    int
	style    string
}

// New creates a renderer that wraps at width using one of Styles.
func New(width int, style string) (*Renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch style {
	case "", "auto":
		opts = append(opts, glamour.WithAutoStyle())
	case "dark", "light", "notty", "ascii":
		opts = append(opts, glamour.WithStandardStyle(style))
	default:
		return nil, fmt.Errorf("unknown markdown style %q", style)
	}
	opts = append(opts, glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)))

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &Renderer{renderer: r, width: width, style: style}, nil
}

// Width returns the wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Style returns the style name the renderer was built with.
func (r *Renderer) Style() string {
	return r.style
}

// Render renders markdown, trimming the blank lines glamour puts around
// the document.
func (r *Renderer) Render(markdown string) (string, error) {
	out, err := r.renderer.Render(markdown)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

// ValidStyle reports whether style is accepted by New.
func ValidStyle(style string) bool {
	if style == "" {
		return true
	}
	for _, s := range Styles {
		if s == style {
			return true
		}
	}
	return false
}
