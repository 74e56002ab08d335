package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseLevel(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown log level")
}

func TestLog_FormatsFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { defaultLogger = nil })

	Debug(CatQuery, "Query complete", "query", "find in children", "results", 2)

	out := buf.String()
	require.Contains(t, out, "[DEBUG] [query] Query complete")
	require.Contains(t, out, "query=find in children")
	require.Contains(t, out, "results=2")
}

func TestLog_OrphanField(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { defaultLogger = nil })

	Info(CatTree, "odd", "key")
	require.Contains(t, buf.String(), "key=<missing>")
}

func TestLog_MinLevelAndDisable(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelWarn)
	t.Cleanup(func() { defaultLogger = nil })

	Debug(CatTree, "hidden")
	Info(CatTree, "hidden")
	require.Empty(t, buf.String())

	ErrorErr(CatTree, "rejected", errors.New("boom"))
	require.Contains(t, buf.String(), "error=boom")

	buf.Reset()
	SetEnabled(false)
	Error(CatTree, "silenced")
	require.Empty(t, buf.String())

	SetEnabled(true)
	SetMinLevel(LevelDebug)
	Debug(CatTree, "visible")
	require.Contains(t, buf.String(), "visible")
}

func TestLog_NoLoggerIsSilent(t *testing.T) {
	defaultLogger = nil
	require.NotPanics(t, func() {
		Error(CatConfig, "nothing configured")
	})
}
