package commands

import (
	"fmt"
	"io"
	"phtrending/lib/summary"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var showLimit *int

func init() {
	showLimit = showCmd.Flags().Int("limit", 10, "The number of data points to show, newest first.")
	rootCmd.AddCommand(showCmd)
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func renderSummary(out io.Writer, s summary.Summary, limit int) {
	t := newTable(out)
	t.SetTitle(fmt.Sprintf("last updated %s", s.LastUpdated))
	t.AppendHeader(table.Row{"Fetched at", "Posts", "Votes", "Top posts"})

	points := s.DataPoints
	if limit > 0 && len(points) > limit {
		points = points[:limit]
	}
	for _, point := range points {
		names := make([]string, len(point.TopPosts))
		for i, post := range point.TopPosts {
			names[i] = fmt.Sprintf("%s (%d)", post.Name, post.Votes)
		}
		t.AppendRow(table.Row{
			point.Timestamp,
			point.PostCount,
			point.TotalVotes,
			strings.Join(names, "\n"),
		})
		t.AppendSeparator()
	}
	t.Render()
}

var showCmd = &cobra.Command{
	Use:   "show [--limit <n>]",
	Short: "Prints summary.json as a table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		s, err := summary.Load(cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("failed to load summary: %w", err)
		}
		renderSummary(cmd.OutOrStdout(), s, *showLimit)
		return nil
	},
}
