package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dropzone/internal/config"
	"github.com/zjrosen/dropzone/internal/presentation"
	"github.com/zjrosen/dropzone/internal/scenario"
	"github.com/zjrosen/dropzone/internal/tracing"
)

const boardScenario = "../internal/scenario/testdata/board.yaml"

func readYAML(t *testing.T, doc string) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(doc)))
	return v
}

func TestDecodeConfig_Defaults(t *testing.T) {
	c, err := decodeConfig(readYAML(t, "debug: false\n"))
	require.NoError(t, err)

	require.Equal(t, 1, c.Engine.DefaultCapacity)
	require.Equal(t, 2*time.Second, c.Engine.MeasureCacheTTL)
	require.Equal(t, 300*time.Millisecond, c.WatchDebounce)
	require.Equal(t, config.DefaultBoard(), c.Board)
	require.False(t, c.Tracing.Enabled)
	require.Equal(t, "file", c.Tracing.Exporter)
}

func TestDecodeConfig_DefaultTemplate(t *testing.T) {
	c, err := decodeConfig(readYAML(t, config.DefaultConfigTemplate()))
	require.NoError(t, err)
	require.Len(t, c.Board.Columns, 3)
	require.Len(t, c.Board.Cards, 5)
	require.Equal(t, "top-center", c.Board.Columns[0].Alignment)
}

func TestDecodeConfig_BoardReplacesDefaults(t *testing.T) {
	c, err := decodeConfig(readYAML(t, `
engine:
  measure_cache_ttl: 500ms
board:
  columns:
    - id: inbox
      capacity: 5
`))
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, c.Engine.MeasureCacheTTL)
	require.Len(t, c.Board.Columns, 1)
	require.Equal(t, "inbox", c.Board.Columns[0].ID)
	require.Empty(t, c.Board.Cards)
}

func TestDecodeConfig_Invalid(t *testing.T) {
	_, err := decodeConfig(readYAML(t, `
tracing:
  exporter: carrier-pigeon
`))
	require.ErrorContains(t, err, "invalid config")
}

func TestSimulate_Text(t *testing.T) {
	var out bytes.Buffer
	err := simulate(context.Background(), &out, boardScenario, presentation.FormatText, scenario.Options{})
	require.NoError(t, err)

	text := out.String()
	require.Contains(t, text, "scenario board")
	require.Contains(t, text, "at 45,4")
	require.Contains(t, text, "zone is at capacity")
}

func TestSimulate_JSON(t *testing.T) {
	var out bytes.Buffer
	err := simulate(context.Background(), &out, boardScenario, presentation.FormatJSON, scenario.Options{})
	require.NoError(t, err)

	var report presentation.ReportDTO
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Steps, 4)
	require.Equal(t, []presentation.AssignmentDTO{
		{Item: "a", Zone: "todo"},
		{Item: "b", Zone: "todo"},
		{Item: "c", Zone: "done"},
	}, report.Assignments)
	require.EqualValues(t, 3, report.Stats.Committed)
	require.EqualValues(t, 1, report.Stats.Rejected)
}

func TestSimulate_Errors(t *testing.T) {
	var out bytes.Buffer

	err := simulate(context.Background(), &out, filepath.Join(t.TempDir(), "missing.yaml"), presentation.FormatText, scenario.Options{})
	require.Error(t, err)

	err = simulate(context.Background(), &out, boardScenario, "xml", scenario.Options{})
	require.ErrorContains(t, err, "unknown output format")
}

func TestDemoOptions_FromConfig(t *testing.T) {
	cfg = config.Defaults()
	demoLayout = ""
	t.Cleanup(func() { cfg = config.Config{} })

	opts, stop, err := demoOptions(&session{tracer: tracing.Noop()})
	require.NoError(t, err)
	defer stop()

	require.Equal(t, config.DefaultBoard(), opts.Board)
	require.Empty(t, opts.LayoutPath)
	require.Nil(t, opts.LayoutChanges)
}

func TestDemoOptions_WatchesLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`columns:
  - id: inbox
    capacity: 3
cards:
  - id: one
    column: inbox
`), 0o644))

	cfg = config.Defaults()
	demoLayout = path
	t.Cleanup(func() {
		cfg = config.Config{}
		demoLayout = ""
	})

	opts, stop, err := demoOptions(&session{tracer: tracing.Noop()})
	require.NoError(t, err)
	defer stop()

	require.Equal(t, path, opts.LayoutPath)
	require.NotNil(t, opts.LayoutChanges)
	require.Equal(t, "inbox", opts.Board.Columns[0].ID)
}

func TestDemoOptions_BadLayout(t *testing.T) {
	cfg = config.Defaults()
	demoLayout = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() {
		cfg = config.Config{}
		demoLayout = ""
	})

	_, _, err := demoOptions(&session{tracer: tracing.Noop()})
	require.Error(t, err)
}
