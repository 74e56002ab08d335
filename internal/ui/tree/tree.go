// Package tree renders a document as an indented tree with a cursor,
// focus history and query match highlighting.
package tree

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/kinship/internal/document"
	"github.com/zjrosen/kinship/internal/log"
	"github.com/zjrosen/kinship/internal/ui/styles"
	"github.com/zjrosen/kinship/relational"
)

// Options control what each row shows.
type Options struct {
	ShowKeys bool // child key before the name
	ShowIDs  bool
	// Zones marks each row for mouse hit testing. The caller must run the
	// final view through zone.Scan.
	Zones bool
}

const zonePrefix = "tree-row:"

// ZoneID returns the bubblezone id of the row at index.
func ZoneID(index int) string {
	return fmt.Sprintf("%s%d", zonePrefix, index)
}

// row is one flattened, visible entry.
type row struct {
	entry  *document.Entry
	depth  int
	prefix string // branch characters, empty for the focused entry
}

// Model holds the tree view state.
type Model struct {
	document  *document.Entry // whole document
	root      *document.Entry // focused entry, the first row
	rows      []row
	cursor    int
	rootStack []string // paths of previous focuses
	matches   map[*document.Entry]bool
	opts      Options
	width     int
	height    int
	scrollTop int
}

// New creates a tree focused on the document root.
func New(doc *document.Entry, opts Options) *Model {
	m := &Model{document: doc, root: doc, opts: opts}
	m.rows = flatten(doc)
	return m
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.ensureCursorVisible()
}

// SetOptions changes the row options.
func (m *Model) SetOptions(opts Options) {
	m.opts = opts
}

// Document returns the whole document.
func (m *Model) Document() *document.Entry { return m.document }

// Root returns the focused entry.
func (m *Model) Root() *document.Entry { return m.root }

// Len returns the number of visible rows.
func (m *Model) Len() int { return len(m.rows) }

// Cursor returns the selected row index.
func (m *Model) Cursor() int { return m.cursor }

// MoveCursor moves the cursor by delta, respecting bounds.
func (m *Model) MoveCursor(delta int) {
	newPos := m.cursor + delta
	newPos = min(newPos, len(m.rows)-1)
	newPos = max(newPos, 0)
	m.cursor = newPos
	m.ensureCursorVisible()
}

// SetCursor selects the row at index, clamped to the rows.
func (m *Model) SetCursor(index int) {
	m.MoveCursor(index - m.cursor)
}

// VisibleRange returns the half-open range of row indexes on screen.
func (m *Model) VisibleRange() (start, end int) {
	return m.scrollTop, min(m.scrollTop+m.viewportHeight(), len(m.rows))
}

// ensureCursorVisible adjusts scrollTop to keep cursor in view.
func (m *Model) ensureCursorVisible() {
	viewportHeight := m.viewportHeight()

	if m.cursor >= m.scrollTop+viewportHeight {
		m.scrollTop = m.cursor - viewportHeight + 1
	}
	if m.cursor < m.scrollTop {
		m.scrollTop = m.cursor
	}

	maxScroll := max(len(m.rows)-viewportHeight, 0)
	m.scrollTop = min(m.scrollTop, maxScroll)
	m.scrollTop = max(m.scrollTop, 0)
}

// viewportHeight returns the number of visible rows. Two lines are kept
// for the scroll indicators.
func (m *Model) viewportHeight() int {
	if m.height <= 0 {
		return max(len(m.rows), 1)
	}
	if m.height > 2 {
		return m.height - 2
	}
	return 1
}

// SelectedEntry returns the entry under the cursor.
func (m *Model) SelectedEntry() *document.Entry {
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		return m.rows[m.cursor].entry
	}
	return nil
}

// SelectEntry moves the cursor to e. Returns false if e is not visible.
func (m *Model) SelectEntry(e *document.Entry) bool {
	for i, r := range m.rows {
		if r.entry == e {
			m.cursor = i
			m.ensureCursorVisible()
			return true
		}
	}
	return false
}

// SelectByID moves the cursor to the visible entry with id.
func (m *Model) SelectByID(id string) bool {
	for i, r := range m.rows {
		if r.entry.ID == id {
			m.cursor = i
			m.ensureCursorVisible()
			return true
		}
	}
	return false
}

// SelectParent moves the cursor to the parent of the selected entry when
// the parent is visible.
func (m *Model) SelectParent() bool {
	selected := m.SelectedEntry()
	if selected == nil || selected == m.root {
		return false
	}
	parent, ok := relational.GetParent(selected).(*document.Entry)
	if !ok {
		return false
	}
	return m.SelectEntry(parent)
}

// Refocus makes e the first row and pushes the current focus on the stack.
func (m *Model) Refocus(e *document.Entry) error {
	if e == nil {
		return fmt.Errorf("refocus: no entry")
	}
	if e != m.document && !relational.Has(m.document).In().Descendants().Match(relational.Value(e)) {
		return fmt.Errorf("refocus: %q is not part of this document", e.String())
	}
	if e == m.root {
		return nil
	}
	m.rootStack = append(m.rootStack, m.root.Path())
	m.focus(e)
	log.Debug(log.CatTree, "Refocused tree", "path", e.Path(), "depth", len(m.rootStack))
	return nil
}

// RefocusPath refocuses on the entry at a document path.
func (m *Model) RefocusPath(path string) error {
	e, err := document.Lookup(m.document, path)
	if err != nil {
		return err
	}
	return m.Refocus(e)
}

// GoBack returns to the previous focus. With an empty stack it moves to the
// parent of the focused entry. Returns false at the document root.
func (m *Model) GoBack() bool {
	for len(m.rootStack) > 0 {
		path := m.rootStack[len(m.rootStack)-1]
		m.rootStack = m.rootStack[:len(m.rootStack)-1]
		if e, err := document.Lookup(m.document, path); err == nil {
			m.focus(e)
			return true
		}
		// Entry was moved or removed since it was focused.
		log.Debug(log.CatTree, "Skipping stale focus", "path", path)
	}

	if parent, ok := relational.GetParent(m.root).(*document.Entry); ok {
		m.focus(parent)
		return true
	}
	return false
}

// GoToOriginal clears the stack and focuses the document root.
func (m *Model) GoToOriginal() {
	m.rootStack = nil
	m.focus(m.document)
}

// Depth returns the number of focuses GoBack can return through.
func (m *Model) Depth() int { return len(m.rootStack) }

func (m *Model) focus(e *document.Entry) {
	m.root = e
	m.rows = flatten(e)
	m.cursor = 0
	m.scrollTop = 0
}

// SetDocument swaps in a reloaded document. The focus and the selection
// are kept by path when they still resolve, otherwise by id.
func (m *Model) SetDocument(doc *document.Entry) {
	focusPath := m.root.Path()
	focusID := m.root.ID
	var selectedPath, selectedID string
	if selected := m.SelectedEntry(); selected != nil {
		selectedPath, selectedID = selected.Path(), selected.ID
	}

	m.document = doc
	m.matches = nil

	root, err := document.Lookup(doc, focusPath)
	if err != nil {
		if byID := document.FindByID(doc, focusID); byID != nil {
			root = byID
		} else {
			root = doc
		}
	}
	m.focus(root)
	if selectedID == "" {
		return
	}
	if e, err := document.Lookup(doc, selectedPath); err == nil && m.SelectEntry(e) {
		return
	}
	m.SelectByID(selectedID)
}

// SetMatches highlights entries. Entries outside the focus are ignored by
// the view but still counted.
func (m *Model) SetMatches(entries []*document.Entry) {
	m.matches = make(map[*document.Entry]bool, len(entries))
	for _, e := range entries {
		m.matches[e] = true
	}
}

// ClearMatches removes match highlighting.
func (m *Model) ClearMatches() {
	m.matches = nil
}

// MatchCount returns the number of highlighted entries.
func (m *Model) MatchCount() int { return len(m.matches) }

// IsMatch reports whether e is highlighted.
func (m *Model) IsMatch(e *document.Entry) bool { return m.matches[e] }

// NextMatch moves the cursor to the next visible match, wrapping around.
func (m *Model) NextMatch() bool { return m.stepMatch(1) }

// PrevMatch moves the cursor to the previous visible match, wrapping around.
func (m *Model) PrevMatch() bool { return m.stepMatch(-1) }

func (m *Model) stepMatch(dir int) bool {
	n := len(m.rows)
	for i := 1; i <= n; i++ {
		idx := ((m.cursor+dir*i)%n + n) % n
		if m.matches[m.rows[idx].entry] {
			m.cursor = idx
			m.ensureCursorVisible()
			return true
		}
	}
	return false
}

// View renders the visible rows.
func (m *Model) View() string {
	if len(m.rows) == 0 {
		return styles.MutedStyle.Render("Empty document")
	}

	var sb strings.Builder
	viewportHeight := m.viewportHeight()
	endIdx := min(m.scrollTop+viewportHeight, len(m.rows))

	if m.scrollTop > 0 {
		sb.WriteString(styles.MutedStyle.Render(fmt.Sprintf("  ↑ %d more above", m.scrollTop)))
		sb.WriteString("\n")
	}

	for i := m.scrollTop; i < endIdx; i++ {
		line := m.renderRow(m.rows[i], i == m.cursor)
		if m.opts.Zones {
			line = zone.Mark(ZoneID(i), line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if remaining := len(m.rows) - endIdx; remaining > 0 {
		sb.WriteString(styles.MutedStyle.Render(fmt.Sprintf("  ↓ %d more below", remaining)))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m *Model) renderRow(r row, selected bool) string {
	var sb strings.Builder

	if selected {
		sb.WriteString(styles.SelectionIndicatorStyle.Render(">"))
	} else {
		sb.WriteString(" ")
	}

	prefix := r.prefix
	if selected && r.depth > 0 {
		prefix = addSelectionGuide(prefix)
	}
	sb.WriteString(prefix)

	line := renderLabel(r.entry, m.opts, m.matches)
	if m.width > 0 {
		available := max(m.width-lipgloss.Width(sb.String()), 0)
		if lipgloss.Width(line) > available {
			// Styled text cannot be cut safely, so fall back to the plain name.
			line = styles.TruncateString(r.entry.String(), available)
		}
	}
	sb.WriteString(line)
	return sb.String()
}

// renderLabel renders "key: Name [kind] #label id" for one entry.
func renderLabel(e *document.Entry, opts Options, matches map[*document.Entry]bool) string {
	var parts []string

	if opts.ShowKeys {
		if key, ok := relational.KeyOf(e); ok {
			parts = append(parts, styles.KeyStyle.Render(key+":"))
		}
	}

	name := e.String()
	switch {
	case matches[e]:
		name = styles.MatchStyle.Render(name)
	case matches != nil:
		name = styles.MutedStyle.Render(name)
	}
	parts = append(parts, name)

	if e.Kind != "" {
		parts = append(parts, styles.KindStyle(e.Kind).Render("["+e.Kind+"]"))
	}
	for _, label := range e.Labels {
		parts = append(parts, styles.MutedStyle.Render("#"+label))
	}
	if opts.ShowIDs {
		parts = append(parts, styles.MutedStyle.Render(e.ID))
	}
	return strings.Join(parts, " ")
}

// flatten lists the subtree rooted at root with branch prefixes.
func flatten(root *document.Entry) []row {
	rows := []row{{entry: root}}
	var walk func(e *document.Entry, depth int, indent string)
	walk = func(e *document.Entry, depth int, indent string) {
		children := e.Children()
		for i, child := range children {
			last := i == len(children)-1
			connector, next := "├─", "│   "
			if last {
				connector, next = "└─", "    "
			}
			rows = append(rows, row{entry: child, depth: depth, prefix: indent + connector})
			walk(child, depth+1, indent+next)
		}
	}
	walk(root, 1, "")
	return rows
}

// addSelectionGuide replaces spaces in the prefix with horizontal lines for
// the selected row.
func addSelectionGuide(prefix string) string {
	var result strings.Builder
	for _, r := range prefix {
		if r == ' ' {
			result.WriteString(styles.MutedStyle.Render("─"))
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// Render draws the whole subtree at root without a cursor, for non
// interactive output.
func Render(root *document.Entry, opts Options) string {
	var sb strings.Builder
	for _, r := range flatten(root) {
		sb.WriteString(r.prefix)
		sb.WriteString(renderLabel(r.entry, opts, nil))
		sb.WriteString("\n")
	}
	return sb.String()
}
