package commands

import (
	"fmt"
	"phtrending/lib/chrono"
	"phtrending/lib/snapshot"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Prints the trending posts as a snapshot without writing anything.",
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

		client, err := newClient(cfg, token)
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}
		service, cleanup, err := newService(cmd.Context(), Config{OutputDir: cfg.OutputDir}, client)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer cleanup()

		posts, err := service.Fetch(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		contents, err := snapshot.New(chrono.NewStandardTime().Now(), posts).Encode()
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(contents)
		if err != nil {
			return fmt.Errorf("failed to print snapshot: %w", err)
		}
		return nil
	},
}
