package markdown

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestRender_Notty(t *testing.T) {
	r, err := New(40, "notty")
	require.NoError(t, err)
	require.Equal(t, 40, r.Width())
	require.Equal(t, "notty", r.Style())

	out, err := r.Render("# Farm\n\nKept the **orchard** going.")
	require.NoError(t, err)

	plain := ansi.Strip(out)
	require.Contains(t, plain, "Farm")
	require.Contains(t, plain, "orchard")
	require.False(t, strings.HasPrefix(out, "\n"))
	require.False(t, strings.HasSuffix(out, "\n"))
}

func TestRender_Wraps(t *testing.T) {
	r, err := New(20, "ascii")
	require.NoError(t, err)

	out, err := r.Render(strings.Repeat("word ", 20))
	require.NoError(t, err)
	for _, line := range strings.Split(ansi.Strip(out), "\n") {
		require.LessOrEqual(t, ansi.StringWidth(strings.TrimRight(line, " ")), 20, "line %q", line)
	}
}

func TestNew_UnknownStyle(t *testing.T) {
	_, err := New(40, "neon")
	require.ErrorContains(t, err, `unknown markdown style "neon"`)
}

func TestValidStyle(t *testing.T) {
	for _, s := range append(Styles, "") {
		require.True(t, ValidStyle(s), s)
	}
	require.False(t, ValidStyle("neon"))
}
