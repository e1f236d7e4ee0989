package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/dropzone/internal/config"
	"github.com/zjrosen/dropzone/internal/log"
	"github.com/zjrosen/dropzone/internal/tracing"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply cannot race the input loop.
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".dropzone/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
	cfgErr    error
)

var rootCmd = &cobra.Command{
	Use:   "dropzone",
	Short: "A drag-and-drop zone coordination engine",
	Long: `dropzone coordinates drop zones and draggable items: which zone an item
hovers, whether the zone has room for it, and where it comes to rest.

Run without a subcommand to open the interactive demo board.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runDemo,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .dropzone/config.yaml, then ~/.config/dropzone/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs (also DROPZONE_DEBUG=1)")
}

// setDefaults registers every scalar default. The board is defaulted after
// decoding since viper merges slices element by element.
func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log_path", d.LogPath)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("watch_debounce", d.WatchDebounce)
	v.SetDefault("engine.default_capacity", d.Engine.DefaultCapacity)
	v.SetDefault("engine.measure_cache_ttl", d.Engine.MeasureCacheTTL)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// decodeConfig unmarshals v and validates the result.
func decodeConfig(v *viper.Viper) (config.Config, error) {
	var c config.Config
	if err := v.Unmarshal(&c); err != nil {
		return config.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if len(c.Board.Columns) == 0 {
		c.Board = config.DefaultBoard()
	}
	if err := config.Validate(c); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func initConfig() {
	v := viper.GetViper()
	setDefaults(v)
	v.SetEnvPrefix("DROPZONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .dropzone/config.yaml (current directory)
		// 2. ~/.config/dropzone/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			v.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			v.AddConfigPath(filepath.Join(home, ".config", "dropzone"))
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config anywhere: write the commented default locally.
			if writeErr := config.WriteDefaultConfig(localConfigPath); writeErr == nil {
				v.SetConfigFile(localConfigPath)
				_ = v.ReadInConfig()
			}
		} else {
			cfgErr = fmt.Errorf("reading config: %w", err)
			return
		}
	}

	cfg, cfgErr = decodeConfig(v)
}

// configFilePath is where column edits are saved.
func configFilePath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return localConfigPath
}

// session holds the process-wide logging and tracing set up for a command.
type session struct {
	tracer   trace.Tracer
	provider *tracing.Provider
	closeLog func()
}

// startSession initializes logging and tracing from cfg. prefix tags the
// log file's lines.
func startSession(prefix string) (*session, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	s := &session{closeLog: func() {}}

	if os.Getenv("DROPZONE_DEBUG") != "" || debugFlag || cfg.Debug {
		logPath := cfg.LogPath
		if logPath == "" {
			logPath = config.DefaultLogPath
		}
		cleanup, err := log.InitWithTeaLog(logPath, prefix)
		if err != nil {
			return nil, fmt.Errorf("initializing logging: %w", err)
		}
		s.closeLog = cleanup
		log.SetMinLevel(log.ParseLevel(cfg.LogLevel))
		log.Info(log.CatConfig, "dropzone starting", "version", version, "config", viper.ConfigFileUsed(), "logPath", logPath)
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		s.closeLog()
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	s.provider = provider
	s.tracer = provider.Tracer()
	return s, nil
}

func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.provider.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTrace, "tracer shutdown failed", err)
	}
	s.closeLog()
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
