package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.RunE = runCmd.RunE
}

// requireToken must succeed before any http client exists.
func requireToken() (string, error) {
	token, err := readToken()
	if err != nil {
		return "", fmt.Errorf("missing credential: %w", err)
	}
	return token, nil
}

func runOnce(ctx context.Context, cfg Config, token string, out io.Writer) error {
	client, err := newClient(cfg, token)
	if err != nil {
		return err
	}
	service, cleanup, err := newService(ctx, cfg, client)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := service.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "saved snapshot to %s\n", result.SnapshotPath)
	fmt.Fprintf(out, "summary updated (%d data points)\n", len(result.Summary.Summary.DataPoints))
	if result.IndexPath != "" {
		fmt.Fprintf(out, "index written to %s\n", result.IndexPath)
	}
	return nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetches the trending posts, writes a snapshot and updates the summary.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		token, err := requireToken()
		if err != nil {
			return err
		}

		err = runOnce(cmd.Context(), cfg, token, cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("run failed: %w", err)
		}
		return nil
	},
}
