package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dropzone/internal/presentation"
	"github.com/zjrosen/dropzone/internal/scenario"
)

var simulateOutput string

var simulateCmd = &cobra.Command{
	Use:   "simulate FILE",
	Short: "Replay a drag-and-drop scenario headlessly",
	Long: `Replay a YAML scenario of zones and drag steps against a fresh engine and
print what every step did plus the final assignments.

Example:
  dropzone simulate board.yaml
  dropzone simulate board.yaml --output json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := startSession("dropzone-simulate")
		if err != nil {
			return err
		}
		defer s.Close()

		opts := scenario.Options{
			DefaultCapacity: cfg.Engine.DefaultCapacity,
			MeasureTTL:      cfg.Engine.MeasureCacheTTL,
			Tracer:          s.tracer,
		}
		return simulate(cmd.Context(), cmd.OutOrStdout(), args[0], simulateOutput, opts)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulateOutput, "output", "o", presentation.FormatText,
		"output format: text, yaml or json")
}

// simulate loads the scenario at path, runs it and writes the report to w.
func simulate(ctx context.Context, w io.Writer, path, format string, opts scenario.Options) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := scenario.NewRunner(opts).Run(ctx, sc)
	if err != nil {
		return fmt.Errorf("running %s: %w", path, err)
	}
	return presentation.NewFormatter(w).FormatReport(presentation.FromReport(report), format)
}
