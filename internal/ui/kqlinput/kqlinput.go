// Package kqlinput provides a query input with KQL syntax highlighting.
//
// Editing is delegated to a bubbles textinput; only rendering differs.
package kqlinput

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/kinship/internal/kql"
	"github.com/zjrosen/kinship/internal/ui/styles"
)

// ANSI codes for the cursor. Only reverse video is toggled so the token
// style under the cursor survives.
const (
	cursorOn  = "\x1b[7m"
	cursorOff = "\x1b[27m"
)

// Model is a query input that wraps when the query exceeds its width.
type Model struct {
	input            textinput.Model
	width            int
	placeholderStyle lipgloss.Style
}

// New creates an unfocused input.
func New() Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 0
	return Model{
		input:            ti,
		width:            40,
		placeholderStyle: lipgloss.NewStyle().Foreground(styles.TextPlaceholderColor),
	}
}

// Value returns the current query text.
func (m Model) Value() string {
	return m.input.Value()
}

// SetValue replaces the query and moves the cursor to the end.
func (m *Model) SetValue(v string) {
	m.input.SetValue(v)
	m.input.CursorEnd()
}

// Cursor returns the cursor position in runes.
func (m Model) Cursor() int {
	return m.input.Position()
}

// SetCursor moves the cursor, clamped to the value.
func (m *Model) SetCursor(pos int) {
	m.input.SetCursor(pos)
}

// Focused reports whether the input receives keys.
func (m Model) Focused() bool {
	return m.input.Focused()
}

// Focus focuses the input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur removes focus.
func (m *Model) Blur() {
	m.input.Blur()
}

// Reset clears the query.
func (m *Model) Reset() {
	m.input.Reset()
}

// SetWidth sets the display width.
func (m *Model) SetWidth(w int) {
	m.width = max(w, 1)
}

// Width returns the display width.
func (m Model) Width() int {
	return m.width
}

// SetPlaceholder sets the text shown when the query is empty and unfocused.
func (m *Model) SetPlaceholder(p string) {
	m.input.Placeholder = p
}

// Height returns the number of lines View renders.
func (m Model) Height() int {
	return strings.Count(m.View(), "\n") + 1
}

// Update forwards messages to the text input while focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.input.Focused() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the highlighted query, wrapped to width.
func (m Model) View() string {
	value := m.input.Value()
	if value == "" {
		if m.input.Focused() {
			return cursorOn + " " + cursorOff
		}
		return m.placeholderStyle.Render(m.input.Placeholder)
	}

	highlighted := kql.Highlight(value)
	if m.input.Focused() {
		highlighted = insertCursor(highlighted, m.input.Position())
	}
	if lipgloss.Width(highlighted) <= m.width {
		return highlighted
	}
	return ansi.Wrap(highlighted, m.width, " ")
}

// insertCursor wraps the visible rune at pos in reverse video, skipping
// escape sequences. A cursor past the end is rendered as a trailing block.
func insertCursor(highlighted string, pos int) string {
	visible := 0
	i := 0
	for i < len(highlighted) {
		if highlighted[i] == '\x1b' {
			i = skipEscape(highlighted, i)
			continue
		}
		if visible == pos {
			break
		}
		_, size := firstRune(highlighted[i:])
		i += size
		visible++
	}

	if i >= len(highlighted) {
		return highlighted + cursorOn + " " + cursorOff
	}
	_, size := firstRune(highlighted[i:])
	return highlighted[:i] + cursorOn + highlighted[i:i+size] + cursorOff + highlighted[i+size:]
}

func skipEscape(s string, i int) int {
	for i < len(s) && s[i] != 'm' {
		i++
	}
	if i < len(s) {
		i++
	}
	return i
}

func firstRune(s string) (rune, int) {
	for _, r := range s {
		return r, len(string(r))
	}
	return 0, 0
}
