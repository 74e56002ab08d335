package details

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/kinship/internal/document"
)

const family = `
name: GrandPa
id: gp
kind: person
labels: [elder, founder]
attrs: { born: "1931", town: Leeds }
description: |
  # History

  Ran the **farm** for forty years.
children:
  mom:
    name: Mom
    id: m1
    children:
      you: { name: You, id: y1 }
`

func load(t *testing.T) *document.Entry {
	t.Helper()
	root, err := document.Parse([]byte(family))
	require.NoError(t, err)
	return root
}

func lines(s string) []string {
	return strings.Split(ansi.Strip(s), "\n")
}

func TestBody_Root(t *testing.T) {
	root := load(t)
	body := ansi.Strip(Body(root, 40, nil))

	require.Contains(t, body, "id       gp")
	require.Contains(t, body, "path     .")
	require.Contains(t, body, "labels   elder, founder")
	require.Contains(t, body, "children 1 entry")
	require.Contains(t, body, "Attributes")
	require.Contains(t, body, "  born  1931")
	require.Contains(t, body, "  town  Leeds")
	require.Contains(t, body, "Ran the **farm**", "nil renderer shows plain text")
	require.NotContains(t, body, "key ")
}

func TestBody_Child(t *testing.T) {
	root := load(t)
	you, err := document.Lookup(root, "mom/you")
	require.NoError(t, err)

	require.Equal(t, []string{
		"id       y1",
		"path     mom/you",
		"key      you",
	}, lines(Body(you, 40, nil)))
}

func TestTitle(t *testing.T) {
	root := load(t)
	require.Equal(t, "GrandPa [person]", ansi.Strip(Title(root, 40)))
	require.Equal(t, "Gra... [person]", ansi.Strip(Title(root, 15)))
	require.Equal(t, "Gr...", ansi.Strip(Title(root, 5)))

	mom, err := document.Lookup(root, "mom")
	require.NoError(t, err)
	require.Equal(t, "Mom", ansi.Strip(Title(mom, 40)))
}

func TestModel_View(t *testing.T) {
	m := New("dark")
	require.Empty(t, m.View(), "no size yet")

	m = m.SetSize(40, 30)
	require.Contains(t, m.View(), "No entry selected")

	root := load(t)
	m = m.SetEntry(root)
	require.Same(t, root, m.Entry())

	view := ansi.Strip(m.View())
	out := strings.Split(view, "\n")
	require.Equal(t, "GrandPa [person]", out[0])
	require.Equal(t, "", out[1])
	require.Contains(t, view, "farm")
	require.NotContains(t, view, "**farm**", "description is rendered as markdown")
}

func TestModel_Scroll(t *testing.T) {
	root := load(t)
	m := New("dark").SetSize(40, 5).SetEntry(root)

	m = m.ScrollDown(2)
	require.Equal(t, 2, m.YOffset())
	m = m.ScrollUp(1)
	require.Equal(t, 1, m.YOffset())

	// Same entry keeps the offset, a new entry resets it.
	m = m.SetEntry(root)
	require.Equal(t, 1, m.YOffset())
	mom, err := document.Lookup(root, "mom")
	require.NoError(t, err)
	m = m.SetEntry(mom)
	require.Equal(t, 0, m.YOffset())
}

func TestModel_BadStyleFallsBack(t *testing.T) {
	root := load(t)
	m := New("neon").SetSize(40, 30).SetEntry(root)
	require.Contains(t, ansi.Strip(m.View()), "Ran the **farm**")
}
