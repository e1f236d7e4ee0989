// Package config provides configuration types and defaults for dropzone.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/zjrosen/dropzone/internal/geometry"
	"github.com/zjrosen/dropzone/internal/log"
	"github.com/zjrosen/dropzone/internal/tracing"
)

// EngineConfig tunes the drop engine.
type EngineConfig struct {
	// DefaultCapacity applies to columns that declare no capacity.
	DefaultCapacity int `mapstructure:"default_capacity" yaml:"default_capacity"`

	// MeasureCacheTTL is how long a column's last good rectangle is reused
	// when it cannot be measured (e.g. scrolled off screen).
	MeasureCacheTTL time.Duration `mapstructure:"measure_cache_ttl" yaml:"measure_cache_ttl"`
}

// ColumnConfig defines a single board column, which is one drop zone.
type ColumnConfig struct {
	ID        string `mapstructure:"id" yaml:"id"`
	Title     string `mapstructure:"title" yaml:"title,omitempty"`
	Capacity  int    `mapstructure:"capacity" yaml:"capacity,omitempty"`
	Alignment string `mapstructure:"alignment" yaml:"alignment,omitempty"` // one of the nine anchors, default "center"
	Disabled  bool   `mapstructure:"disabled" yaml:"disabled,omitempty"`
	Color     string `mapstructure:"color" yaml:"color,omitempty"` // hex color e.g. "#10B981"
}

// DisplayTitle returns the title, falling back to the id.
func (c ColumnConfig) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.ID
}

// CardConfig defines a draggable card and the column it starts in.
type CardConfig struct {
	ID     string `mapstructure:"id" yaml:"id"`
	Title  string `mapstructure:"title" yaml:"title,omitempty"`
	Column string `mapstructure:"column" yaml:"column,omitempty"` // empty leaves the card unplaced
}

// BoardConfig is the demo board layout.
type BoardConfig struct {
	Columns []ColumnConfig `mapstructure:"columns" yaml:"columns"`
	Cards   []CardConfig   `mapstructure:"cards" yaml:"cards"`
}

// Config holds all configuration options for dropzone.
type Config struct {
	Debug         bool           `mapstructure:"debug"`
	LogPath       string         `mapstructure:"log_path"`
	LogLevel      string         `mapstructure:"log_level"` // debug, info, warn or error
	WatchDebounce time.Duration  `mapstructure:"watch_debounce"`
	Engine        EngineConfig   `mapstructure:"engine"`
	Board         BoardConfig    `mapstructure:"board"`
	Tracing       tracing.Config `mapstructure:"tracing"`
}

// DefaultLogPath is used when debug logging is on and no log_path is set.
const DefaultLogPath = "debug.log"

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/dropzone/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "dropzone", "traces", "traces.jsonl")
}

// DefaultBoard returns the three-column board used when none is configured.
func DefaultBoard() BoardConfig {
	return BoardConfig{
		Columns: []ColumnConfig{
			{ID: "todo", Title: "Todo", Capacity: 4, Alignment: string(geometry.AlignTopCenter), Color: "#60A5FA"},
			{ID: "doing", Title: "In Progress", Capacity: 2, Alignment: string(geometry.AlignTopCenter), Color: "#FBBF24"},
			{ID: "done", Title: "Done", Capacity: 3, Alignment: string(geometry.AlignTopCenter), Color: "#10B981"},
		},
		Cards: []CardConfig{
			{ID: "write-tests", Title: "Write tests", Column: "todo"},
			{ID: "fix-hover", Title: "Fix hover flicker", Column: "todo"},
			{ID: "docs", Title: "Update docs", Column: "todo"},
			{ID: "release", Title: "Cut release", Column: "doing"},
			{ID: "triage", Title: "Triage issues", Column: "done"},
		},
	}
}

// Defaults returns the default configuration.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		WatchDebounce: 300 * time.Millisecond,
		Engine: EngineConfig{
			DefaultCapacity: 1,
			MeasureCacheTTL: 2 * time.Second,
		},
		Board:   DefaultBoard(),
		Tracing: tc,
	}
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidateEngine checks engine settings.
func ValidateEngine(e EngineConfig) error {
	if e.DefaultCapacity < 0 {
		return fmt.Errorf("engine.default_capacity must be >= 0, got %d", e.DefaultCapacity)
	}
	if e.MeasureCacheTTL < 0 {
		return fmt.Errorf("engine.measure_cache_ttl must be >= 0, got %s", e.MeasureCacheTTL)
	}
	return nil
}

// ValidateColumns checks column configuration for errors.
// Returns nil if columns are valid or empty (will use defaults).
func ValidateColumns(cols []ColumnConfig) error {
	seen := make(map[string]bool, len(cols))
	for i, col := range cols {
		if col.ID == "" {
			return fmt.Errorf("column %d: id is required", i)
		}
		if seen[col.ID] {
			return fmt.Errorf("column %d (%s): duplicate id", i, col.ID)
		}
		seen[col.ID] = true
		if col.Capacity < 0 {
			return fmt.Errorf("column %d (%s): capacity must be >= 0", i, col.ID)
		}
		if _, err := geometry.ParseAlignment(col.Alignment); err != nil {
			return fmt.Errorf("column %d (%s): %w", i, col.ID, err)
		}
		if col.Color != "" && !hexColor.MatchString(col.Color) {
			return fmt.Errorf("column %d (%s): color must be #RRGGBB, got %q", i, col.ID, col.Color)
		}
	}
	return nil
}

// ValidateBoard checks columns and that every card starts in a known column.
func ValidateBoard(b BoardConfig) error {
	if err := ValidateColumns(b.Columns); err != nil {
		return err
	}
	columns := make(map[string]bool, len(b.Columns))
	for _, c := range b.Columns {
		columns[c.ID] = true
	}
	seen := make(map[string]bool, len(b.Cards))
	for i, card := range b.Cards {
		if card.ID == "" {
			return fmt.Errorf("card %d: id is required", i)
		}
		if seen[card.ID] {
			return fmt.Errorf("card %d (%s): duplicate id", i, card.ID)
		}
		seen[card.ID] = true
		if card.Column != "" && !columns[card.Column] {
			return fmt.Errorf("card %d (%s): unknown column %q", i, card.ID, card.Column)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	switch t.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1, got %v", t.SampleRate)
	}
	return nil
}

// Validate checks the whole configuration.
func Validate(cfg Config) error {
	if err := ValidateEngine(cfg.Engine); err != nil {
		return err
	}
	if err := ValidateBoard(cfg.Board); err != nil {
		return fmt.Errorf("board: %w", err)
	}
	if err := ValidateTracing(cfg.Tracing); err != nil {
		return err
	}
	if cfg.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must be >= 0, got %s", cfg.WatchDebounce)
	}
	return nil
}

// GetColumns returns the configured columns, or the defaults when none are set.
func (c Config) GetColumns() []ColumnConfig {
	if len(c.Board.Columns) == 0 {
		return DefaultBoard().Columns
	}
	return c.Board.Columns
}

// DefaultConfigTemplate returns the commented YAML written on first run.
func DefaultConfigTemplate() string {
	return `# Dropzone Configuration

# Write debug logs (also enabled by --debug or DROPZONE_DEBUG=1)
debug: false
# log_path: debug.log
# log_level: debug        # debug, info, warn, error

# Delay before reloading the board after the layout file changes
watch_debounce: 300ms

engine:
  default_capacity: 1      # Capacity of columns that declare none
  measure_cache_ttl: 2s    # Reuse a column's last rectangle this long when it cannot be measured

# Demo board. Each column is a drop zone; cards are dragged between them.
# alignment is one of: center, top-left, top-center, top-right, center-left,
# center-right, bottom-left, bottom-center, bottom-right
board:
  columns:
    - id: todo
      title: Todo
      capacity: 4
      alignment: top-center
      color: "#60A5FA"
    - id: doing
      title: In Progress
      capacity: 2
      alignment: top-center
      color: "#FBBF24"
    - id: done
      title: Done
      capacity: 3
      alignment: top-center
      color: "#10B981"
  cards:
    - {id: write-tests, title: Write tests, column: todo}
    - {id: fix-hover, title: Fix hover flicker, column: todo}
    - {id: docs, title: Update docs, column: todo}
    - {id: release, title: Cut release, column: doing}
    - {id: triage, title: Triage issues, column: done}

# OpenTelemetry spans around drops and position updates
tracing:
  enabled: false
  exporter: file           # none, file, stdout, otlp
  # file_path: ~/.config/dropzone/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file with default settings.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
