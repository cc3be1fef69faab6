package commands

import (
	"context"
	"log/slog"
	"phtrending/lib/serviceutil"
	"phtrending/lib/telemetry"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	outDir     *string
	verbose    *bool
)

var tel telemetry.Telemetry

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "", "Path to a phtrending.json5 config file.")
	outDir = rootCmd.PersistentFlags().String("out", "", "The output directory, overrides output_dir in the config.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enables debug logging and dumps http exchanges.")
}

var rootCmd = &cobra.Command{
	Use:   "phtrending",
	Short: "phtrending keeps timestamped snapshots of the Product Hunt trending posts.",
	Long: `phtrending fetches the currently trending Product Hunt posts, stores them
as a timestamped JSON snapshot next to latest.json and rebuilds summary.json
from every snapshot in the output directory.

Running it without a subcommand is the same as "phtrending run".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)

		var err error
		tel, err = telemetry.SetupFromEnv(cmd.Context(), "phtrending")
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}
	},
}

// execute runs the selected command and flushes telemetry whether or not it
// failed. Commands return their errors so their deferred cleanups run first.
func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	flushErr := tel.Shutdown(flushCtx)
	if flushErr != nil {
		slog.Warn("failed to flush telemetry", "err", flushErr)
	}
	return err
}

func ExecuteContext(ctx context.Context) {
	err := execute(ctx)
	if err != nil {
		serviceutil.Fatal("phtrending failed", err)
	}
}

// readConfig loads the config selected by the persistent flags.
func readConfig() (Config, error) {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return Config{}, err
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	return cfg, nil
}
