package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"phtrending/lib/summary"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(aggregateCmd)
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Rebuilds summary.json from the snapshots in the output directory.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		service, cleanup, err := newService(cmd.Context(), Config{OutputDir: cfg.OutputDir}, nil)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer cleanup()

		result, err := service.Aggregate(cmd.Context())
		if errors.Is(err, summary.ErrNoSnapshots) {
			slog.Warn("nothing to aggregate, summary left untouched", "dir", cfg.OutputDir)
			return nil
		}
		if err != nil {
			return fmt.Errorf("aggregate failed: %w", err)
		}
		fmt.Fprintf(
			cmd.OutOrStdout(), "summary updated (%d data points, %d files skipped)\n",
			len(result.Summary.DataPoints), len(result.Skipped),
		)
		return nil
	},
}
