package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func readConfig(t *testing.T, path string) Config {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw struct {
		Debug bool        `yaml:"debug"`
		Board BoardConfig `yaml:"board"`
	}
	require.NoError(t, yaml.Unmarshal(data, &raw))
	return Config{Debug: raw.Debug, Board: raw.Board}
}

func TestSaveColumns_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cols := []ColumnConfig{
		{ID: "todo", Title: "Todo", Capacity: 2, Alignment: "top-left", Color: "#60A5FA"},
		{ID: "done", Disabled: true},
	}

	require.NoError(t, SaveColumns(path, cols))
	require.Equal(t, cols, readConfig(t, path).Board.Columns)
}

func TestSaveColumns_PreservesOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`# keep me
debug: true
board:
  columns:
    - id: old
  cards:
    - id: a
      column: old
`), 0o600))

	require.NoError(t, SaveColumns(path, []ColumnConfig{{ID: "new", Capacity: 3}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# keep me")

	cfg := readConfig(t, path)
	require.True(t, cfg.Debug)
	require.Equal(t, []ColumnConfig{{ID: "new", Capacity: 3}}, cfg.Board.Columns)
	require.Equal(t, []CardConfig{{ID: "a", Column: "old"}}, cfg.Board.Cards)
}

func TestSaveColumns_AddsBoardSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o600))

	require.NoError(t, SaveColumns(path, []ColumnConfig{{ID: "a"}}))
	require.Equal(t, []ColumnConfig{{ID: "a"}}, readConfig(t, path).Board.Columns)
}

func TestSaveColumns_RejectsNonMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- just\n- a list\n"), 0o600))

	require.ErrorContains(t, SaveColumns(path, nil), "not a mapping")
}

func TestSaveColumns_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	require.NoError(t, SaveColumns(path, []ColumnConfig{{ID: "x", Color: "#10B981"}}))
	require.Equal(t, []ColumnConfig{{ID: "x", Color: "#10B981"}}, readConfig(t, path).Board.Columns)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}

func TestLoadBoard(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "layout.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
columns:
  - {id: todo, capacity: 2}
  - {id: done}
cards:
  - {id: a, title: A, column: todo}
`), 0o600))

	b, err := LoadBoard(good)
	require.NoError(t, err)
	require.Len(t, b.Columns, 2)
	require.Equal(t, CardConfig{ID: "a", Title: "A", Column: "todo"}, b.Cards[0])

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("cards: [{id: a, column: nowhere}]\n"), 0o600))
	_, err = LoadBoard(bad)
	require.ErrorContains(t, err, "unknown column")

	_, err = LoadBoard(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
