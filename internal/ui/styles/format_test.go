package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"fits", "GrandPa", 10, "GrandPa"},
		{"exact", "GrandPa", 7, "GrandPa"},
		{"truncated", "Great Grand Son", 10, "Great G..."},
		{"tiny width", "GrandPa", 2, ".."},
		{"zero width", "GrandPa", 0, ""},
		{"wide runes", "日本語の名前", 7, "日本..."},
		{"combining mark kept whole", "Zoe\u0308 Saldana", 6, "Zoe\u0308..."},
		{"wide rune does not split", "日本語", 5, "日..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, TruncateString(tt.input, tt.width))
		})
	}
}

func TestWrap(t *testing.T) {
	require.Equal(t, "a b c", Wrap("a b c", 0))

	wrapped := Wrap("could not find kind=zoo in descendants", 12)
	for _, line := range strings.Split(wrapped, "\n") {
		require.LessOrEqual(t, len(line), 12, "line %q", line)
	}
}

func TestFormatCount(t *testing.T) {
	require.Equal(t, "0 matches", FormatCount(0, "match", "matches"))
	require.Equal(t, "1 entry", FormatCount(1, "entry", "entries"))
	require.Equal(t, "3 entries", FormatCount(3, "entry", "entries"))
}

func TestKindStyle_Stable(t *testing.T) {
	a := KindStyle("person").GetForeground()
	b := KindStyle("person").GetForeground()
	require.Equal(t, a, b)
}
