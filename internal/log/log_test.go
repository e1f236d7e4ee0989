package log

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLog_FormatsFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	Warn(CatDrop, "drop rejected", "item", "c", "zone", "todo")

	out := buf.String()
	require.Contains(t, out, "[WARN] [drop] drop rejected item=c zone=todo")
	require.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}

func TestLog_OddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	Info(CatHover, "hover", "zone")
	require.Contains(t, buf.String(), "zone=<missing>")
}

func TestLog_MinLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	SetMinLevel(LevelWarn)
	Debug(CatRegistry, "hidden")
	Info(CatRegistry, "hidden")
	Error(CatRegistry, "shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestLog_Disabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	SetEnabled(false)
	Error(CatDrop, "nothing")
	require.Zero(t, buf.Len())
}

func TestLog_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	ErrorErr(CatConfig, "load failed", errors.New("boom"), "path", "x.yaml")
	require.Contains(t, buf.String(), "path=x.yaml error=boom")

	buf.Reset()
	ErrorErr(CatConfig, "load failed", nil)
	require.Contains(t, buf.String(), "error=<nil>")
}

func TestLog_NoLoggerIsNoop(t *testing.T) {
	Reset()
	require.NotPanics(t, func() {
		Warn(CatUI, "no logger")
		SetEnabled(true)
		SetMinLevel(LevelInfo)
	})
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelInfo, ParseLevel("INFO"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelDebug, ParseLevel(""))
	require.Equal(t, "WARN", LevelWarn.String())
}

func TestFormat(t *testing.T) {
	at := time.Date(2025, 12, 6, 10, 45, 0, 0, time.UTC)
	line := format(at, LevelInfo, CatScenario, "step", []any{"n", 3, "zone", "done"})
	require.Equal(t, "2025-12-06T10:45:00 [INFO] [scenario] step n=3 zone=done\n", line)
	require.Equal(t, "UNKNOWN", Level(9).String())
}
