package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"

	"github.com/zjrosen/dropzone/internal/config"
	"github.com/zjrosen/dropzone/internal/log"
	"github.com/zjrosen/dropzone/internal/ui/board"
	"github.com/zjrosen/dropzone/internal/watcher"
)

var demoLayout string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Open the interactive demo board",
	Long: `Open a kanban-style board whose columns are drop zones. Drag cards with the
mouse, or pick them up with space and move them with the arrow keys.

With --layout the board is read from a separate YAML file and reloaded
whenever that file changes.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	for _, c := range []*cobra.Command{rootCmd, demoCmd} {
		c.Flags().StringVarP(&demoLayout, "layout", "l", "",
			"layout file with columns and cards, watched for changes")
	}
}

// demoOptions builds the board options from cfg. The returned stop func
// releases the layout watcher, if any.
func demoOptions(s *session) (board.Options, func(), error) {
	opts := board.Options{
		Board:           cfg.Board,
		DefaultCapacity: cfg.Engine.DefaultCapacity,
		MeasureTTL:      cfg.Engine.MeasureCacheTTL,
		ConfigPath:      configFilePath(),
		Tracer:          s.tracer,
	}
	if demoLayout == "" {
		return opts, func() {}, nil
	}

	b, err := config.LoadBoard(demoLayout)
	if err != nil {
		return board.Options{}, nil, err
	}
	opts.Board = b
	opts.LayoutPath = demoLayout

	wcfg := watcher.DefaultConfig(demoLayout)
	if cfg.WatchDebounce > 0 {
		wcfg.DebounceDur = cfg.WatchDebounce
	}
	w, err := watcher.New(wcfg)
	if err != nil {
		return board.Options{}, nil, fmt.Errorf("watching layout: %w", err)
	}
	ch, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return board.Options{}, nil, fmt.Errorf("watching layout: %w", err)
	}
	opts.LayoutChanges = ch
	return opts, func() { _ = w.Stop() }, nil
}

func runDemo(_ *cobra.Command, _ []string) error {
	s, err := startSession("dropzone")
	if err != nil {
		return err
	}
	defer s.Close()

	opts, stop, err := demoOptions(s)
	if err != nil {
		return err
	}
	defer stop()

	zone.NewGlobal()
	model := board.New(opts)
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	log.Info(log.CatUI, "demo closed", "stats", fmt.Sprintf("%+v", model.Engine().Stats()))
	if st, ok := model.MeasureStats(); ok {
		log.Info(log.CatMeasure, "measurement cache", "fresh", st.Fresh, "cached", st.Stale, "missed", st.Miss)
	}
	return nil
}
