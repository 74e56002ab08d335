package tree

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/kinship/internal/document"
)

const familyDoc = `
name: GrandPa
id: gp
kind: person
labels: [elder]
children:
  mom:
    name: Mom
    id: mom
    children:
      you:
        name: You
        id: you
        children:
          son: { name: Son, id: son }
      sister: { name: Sister, id: sister }
  uncle: { name: Uncle, id: uncle }
  house: { name: House, id: house, kind: place }
`

func loadFamily(t *testing.T) *document.Entry {
	t.Helper()
	root, err := document.Parse([]byte(familyDoc))
	require.NoError(t, err)
	return root
}

func lookup(t *testing.T, root *document.Entry, path string) *document.Entry {
	t.Helper()
	e, err := document.Lookup(root, path)
	require.NoError(t, err)
	return e
}

func plainLines(s string) []string {
	return strings.Split(strings.TrimRight(ansi.Strip(s), "\n"), "\n")
}

func TestRender(t *testing.T) {
	got := plainLines(Render(loadFamily(t), Options{}))
	require.Equal(t, []string{
		"GrandPa [person] #elder",
		"├─Mom",
		"│   ├─You",
		"│   │   └─Son",
		"│   └─Sister",
		"├─Uncle",
		"└─House [place]",
	}, got)
}

func TestRender_Options(t *testing.T) {
	root := loadFamily(t)
	got := plainLines(Render(lookup(t, root, "mom"), Options{ShowKeys: true, ShowIDs: true}))
	require.Equal(t, "mom: Mom mom", got[0])
	require.Equal(t, "├─you: You you", got[1])
}

func TestMoveCursor_Bounds(t *testing.T) {
	m := New(loadFamily(t), Options{})
	require.Equal(t, 7, m.Len())

	m.MoveCursor(-1)
	require.Equal(t, 0, m.Cursor())

	m.MoveCursor(3)
	require.Equal(t, "Son", m.SelectedEntry().Name())

	m.MoveCursor(100)
	require.Equal(t, "House", m.SelectedEntry().Name())
}

func TestSelect(t *testing.T) {
	root := loadFamily(t)
	m := New(root, Options{})

	require.True(t, m.SelectByID("sister"))
	require.Equal(t, 4, m.Cursor())
	require.False(t, m.SelectByID("nobody"))

	require.True(t, m.SelectParent())
	require.Equal(t, "Mom", m.SelectedEntry().Name())
	require.True(t, m.SelectParent())
	require.Same(t, root, m.SelectedEntry())
	require.False(t, m.SelectParent())
}

func TestRefocus_GoBack(t *testing.T) {
	root := loadFamily(t)
	m := New(root, Options{})

	require.NoError(t, m.RefocusPath("mom"))
	require.Equal(t, "Mom", m.Root().Name())
	require.Equal(t, 4, m.Len())

	require.NoError(t, m.Refocus(lookup(t, root, "mom/you")))
	require.Equal(t, 2, m.Depth())

	require.True(t, m.GoBack())
	require.Equal(t, "Mom", m.Root().Name())
	require.True(t, m.GoBack())
	require.Same(t, root, m.Root())
	require.False(t, m.GoBack())
}

func TestGoBack_ParentWithoutHistory(t *testing.T) {
	root := loadFamily(t)
	m := New(root, Options{})
	require.NoError(t, m.RefocusPath("mom/you"))
	m.GoToOriginal()
	require.Equal(t, 0, m.Depth())

	require.NoError(t, m.RefocusPath("mom/you/son"))
	m.rootStack = nil
	require.True(t, m.GoBack())
	require.Equal(t, "You", m.Root().Name())
}

func TestRefocus_Errors(t *testing.T) {
	m := New(loadFamily(t), Options{})
	require.Error(t, m.Refocus(nil))
	require.ErrorIs(t, m.RefocusPath("mom/nobody"), document.ErrNoEntry)

	other := loadFamily(t)
	require.ErrorContains(t, m.Refocus(lookup(t, other, "uncle")), "not part of this document")
}

func TestSetDocument_KeepsFocusAndSelection(t *testing.T) {
	m := New(loadFamily(t), Options{})
	require.NoError(t, m.RefocusPath("mom"))
	require.True(t, m.SelectByID("son"))
	m.SetMatches([]*document.Entry{m.SelectedEntry()})

	reloaded := loadFamily(t)
	m.SetDocument(reloaded)

	require.Same(t, lookup(t, reloaded, "mom"), m.Root())
	require.Equal(t, "son", m.SelectedEntry().ID)
	require.Equal(t, 0, m.MatchCount(), "matches refer to the old document")
}

func TestSetDocument_FocusRemoved(t *testing.T) {
	m := New(loadFamily(t), Options{})
	require.NoError(t, m.RefocusPath("uncle"))

	reloaded, err := document.Parse([]byte("name: Solo\n"))
	require.NoError(t, err)
	m.SetDocument(reloaded)
	require.Same(t, reloaded, m.Root())
}

func TestSetDocument_FocusMovedKeepsID(t *testing.T) {
	m := New(loadFamily(t), Options{})
	require.NoError(t, m.RefocusPath("mom/you"))

	reloaded := loadFamily(t)
	_, err := document.Move(reloaded, "mom/you", "uncle", "")
	require.NoError(t, err)
	m.SetDocument(reloaded)
	require.Equal(t, "uncle/you", m.Root().Path())
}

func TestMatches(t *testing.T) {
	root := loadFamily(t)
	m := New(root, Options{})
	m.SetMatches([]*document.Entry{lookup(t, root, "mom/you"), lookup(t, root, "house")})
	require.Equal(t, 2, m.MatchCount())
	require.True(t, m.IsMatch(lookup(t, root, "house")))

	require.True(t, m.NextMatch())
	require.Equal(t, "You", m.SelectedEntry().Name())
	require.True(t, m.NextMatch())
	require.Equal(t, "House", m.SelectedEntry().Name())
	require.True(t, m.NextMatch(), "wraps around")
	require.Equal(t, "You", m.SelectedEntry().Name())
	require.True(t, m.PrevMatch())
	require.Equal(t, "House", m.SelectedEntry().Name())

	m.ClearMatches()
	require.False(t, m.NextMatch())
}

func TestView_CursorAndGuide(t *testing.T) {
	m := New(loadFamily(t), Options{})
	m.SetSize(80, 20)
	m.MoveCursor(2)

	lines := plainLines(m.View())
	require.Len(t, lines, 7)
	require.Equal(t, " GrandPa [person] #elder", lines[0])
	require.Equal(t, ">│───├─You", lines[2])
}

func TestView_Scrolling(t *testing.T) {
	m := New(loadFamily(t), Options{})
	m.SetSize(80, 5) // three rows plus indicators

	lines := plainLines(m.View())
	require.Len(t, lines, 4)
	require.Equal(t, "  ↓ 4 more below", lines[3])

	m.MoveCursor(100)
	lines = plainLines(m.View())
	require.Equal(t, "  ↑ 4 more above", lines[0])
	require.Equal(t, ">└─House [place]", lines[3])
}

func TestView_Truncates(t *testing.T) {
	m := New(loadFamily(t), Options{})
	m.SetSize(12, 20)
	lines := plainLines(m.View())
	require.Equal(t, " GrandPa", lines[0], "styled labels that do not fit fall back to the name")
	for _, line := range lines {
		require.LessOrEqual(t, ansi.StringWidth(line), 12, "line %q", line)
	}
}

func TestSetCursor_VisibleRange(t *testing.T) {
	m := New(loadFamily(t), Options{})
	m.SetSize(80, 5)

	start, end := m.VisibleRange()
	require.Equal(t, 0, start)
	require.Equal(t, 3, end)

	m.SetCursor(5)
	require.Equal(t, 5, m.Cursor())
	start, end = m.VisibleRange()
	require.Equal(t, 3, start)
	require.Equal(t, 6, end)

	m.SetCursor(-3)
	require.Equal(t, 0, m.Cursor())
	m.SetCursor(99)
	require.Equal(t, m.Len()-1, m.Cursor())
}

func TestView_Zones(t *testing.T) {
	zone.NewGlobal()

	plain := New(loadFamily(t), Options{})
	plain.SetSize(80, 20)
	zoned := New(loadFamily(t), Options{Zones: true})
	zoned.SetSize(80, 20)

	marked := zoned.View()
	require.NotEqual(t, plain.View(), marked)
	require.Equal(t, plain.View(), zone.Scan(marked))
	require.Equal(t, "tree-row:3", ZoneID(3))
}
