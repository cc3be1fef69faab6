package commands

import (
	"fmt"
	"io"
	"log/slog"
	"phtrending/lib/history"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	historyCmd.AddCommand(historyRebuildCmd)
	rootCmd.AddCommand(historyCmd)
}

var errHistoryDisabled = fmt.Errorf("history index is not configured, set history.file or history.url in %s", configName)

// requireHistory reads the config and opens the history index it points at.
func requireHistory(cmd *cobra.Command) (Config, history.Store, func(), error) {
	cfg, err := readConfig()
	if err != nil {
		return Config{}, history.Store{}, nil, fmt.Errorf("failed to read config: %w", err)
	}
	if !cfg.History.Enabled() {
		return Config{}, history.Store{}, nil, errHistoryDisabled
	}
	store, cleanup, err := openHistory(cmd.Context(), cfg)
	if err != nil {
		return Config{}, history.Store{}, nil, fmt.Errorf("failed to open history index: %w", err)
	}
	return cfg, store, cleanup, nil
}

func renderSeries(out io.Writer, series []history.PostSeries) {
	for _, s := range series {
		t := newTable(out)
		t.SetTitle(fmt.Sprintf("%s (%s)", s.Name, s.PostID))
		t.AppendHeader(table.Row{"Fetched at", "Rank", "Votes", "Comments"})
		for _, point := range s.Points {
			t.AppendRow(table.Row{point.FetchedAt, point.Rank, point.Votes, point.Comments})
		}
		t.AppendFooter(table.Row{"", "", s.URL})
		t.Render()
	}
}

var historyCmd = &cobra.Command{
	Use:   "history <post id or name>",
	Short: "Prints how the votes of matching posts evolved across snapshots.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, cleanup, err := requireHistory(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		series, err := store.Series(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to query history: %w", err)
		}
		if len(series) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no posts matching '%s'\n", args[0])
			return nil
		}
		renderSeries(cmd.OutOrStdout(), series)
		return nil
	},
}

var historyRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Re-indexes every snapshot in the output directory.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, cleanup, err := requireHistory(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := store.Rebuild(cmd.Context(), cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("failed to rebuild history index: %w", err)
		}
		slog.Info("history rebuilt", "indexed", result.Indexed, "skipped", len(result.Skipped))
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d snapshots (%d skipped)\n", result.Indexed, len(result.Skipped))
		return nil
	},
}
