// Package details renders the details pane for the selected entry.
package details

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/kinship/internal/document"
	"github.com/zjrosen/kinship/internal/log"
	"github.com/zjrosen/kinship/internal/ui/markdown"
	"github.com/zjrosen/kinship/internal/ui/styles"
	"github.com/zjrosen/kinship/relational"
)

const labelWidth = 9

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.TextSecondaryColor)
)

// Model shows one entry: its identity, labels, attributes and rendered
// description. The body scrolls; the title line does not.
type Model struct {
	entry         *document.Entry
	viewport      viewport.Model
	renderer      *markdown.Renderer
	markdownStyle string
	width         int
	height        int
}

// New creates an empty pane that renders descriptions with markdownStyle.
func New(markdownStyle string) Model {
	return Model{markdownStyle: markdownStyle, viewport: viewport.New(0, 0)}
}

// SetEntry shows e. Switching to a different entry scrolls back to the top.
func (m Model) SetEntry(e *document.Entry) Model {
	changed := e != m.entry
	m.entry = e
	m.refresh()
	if changed {
		m.viewport.GotoTop()
	}
	return m
}

// Entry returns the entry being shown.
func (m Model) Entry() *document.Entry {
	return m.entry
}

// SetSize sets the pane size. The markdown renderer is rebuilt when the
// width changes.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.viewport.Width = max(width, 0)
	m.viewport.Height = max(height-2, 0)

	if width > 0 && (m.renderer == nil || m.renderer.Width() != width) {
		r, err := markdown.New(width, m.markdownStyle)
		if err != nil {
			log.ErrorErr(log.CatUI, "Markdown renderer unavailable", err, "style", m.markdownStyle)
			r = nil
		}
		m.renderer = r
	}
	m.refresh()
	return m
}

// Height returns the number of body lines on screen.
func (m Model) Height() int {
	return m.viewport.Height
}

// ScrollDown scrolls the body by n lines.
func (m Model) ScrollDown(n int) Model {
	m.viewport.ScrollDown(n)
	return m
}

// ScrollUp scrolls the body by n lines.
func (m Model) ScrollUp(n int) Model {
	m.viewport.ScrollUp(n)
	return m
}

// YOffset returns the scroll offset of the body.
func (m Model) YOffset() int {
	return m.viewport.YOffset
}

func (m *Model) refresh() {
	if m.entry == nil {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(Body(m.entry, m.width, m.renderer))
}

// View renders the title line, a blank line and the scrolled body.
func (m Model) View() string {
	if m.width <= 0 {
		return ""
	}
	if m.entry == nil {
		return styles.MutedStyle.Render("No entry selected")
	}
	return Title(m.entry, m.width) + "\n\n" + m.viewport.View()
}

// Title renders "Name [kind]", truncated to width.
func Title(e *document.Entry, width int) string {
	name := e.String()
	if e.Kind == "" {
		return titleStyle.Render(styles.TruncateString(name, width))
	}
	badge := "[" + e.Kind + "]"
	room := width - lipgloss.Width(badge) - 1
	if room < 1 {
		return titleStyle.Render(styles.TruncateString(name, width))
	}
	return titleStyle.Render(styles.TruncateString(name, room)) + " " + styles.KindStyle(e.Kind).Render(badge)
}

// Body renders everything below the title. A nil renderer shows the
// description as wrapped plain text.
func Body(e *document.Entry, width int, r *markdown.Renderer) string {
	var lines []string
	row := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines, styles.MutedStyle.Render(fmt.Sprintf("%-*s", labelWidth, label))+value)
	}

	path := e.Path()
	if path == "" {
		path = "."
	}
	row("id", styles.KeyStyle.Render(e.ID))
	row("path", path)
	if key, ok := relational.KeyOf(e); ok {
		row("key", key)
	}
	row("labels", strings.Join(e.Labels, ", "))
	if n := len(e.Children()); n > 0 {
		row("children", styles.FormatCount(n, "entry", "entries"))
	}

	if len(e.Attrs) > 0 {
		keys := make([]string, 0, len(e.Attrs))
		keyWidth := 0
		for k := range e.Attrs {
			keys = append(keys, k)
			keyWidth = max(keyWidth, lipgloss.Width(k))
		}
		slices.Sort(keys)

		lines = append(lines, "", sectionStyle.Render("Attributes"))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("  %s  %s", styles.KeyStyle.Render(fmt.Sprintf("%-*s", keyWidth, k)), e.Attrs[k]))
		}
	}

	if e.Description != "" {
		lines = append(lines, "", renderDescription(e.Description, width, r))
	}
	return strings.Join(lines, "\n")
}

func renderDescription(desc string, width int, r *markdown.Renderer) string {
	if r != nil {
		out, err := r.Render(desc)
		if err == nil {
			return out
		}
		log.ErrorErr(log.CatUI, "Rendering description failed", err)
	}
	return styles.Wrap(desc, width)
}
