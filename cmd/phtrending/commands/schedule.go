package commands

import (
	"fmt"
	"log/slog"
	"phtrending/lib/chrono"
	"phtrending/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	scheduleSpec *string
	scheduleNow  *bool
)

func init() {
	scheduleSpec = scheduleCmd.Flags().String("cron", "", "A cron spec, overrides schedule in the config (default \"@hourly\").")
	scheduleNow = scheduleCmd.Flags().Bool("now", false, "Also runs once right away.")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [--cron <spec>] [--now]",
	Short: "Keeps running on a cron schedule until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := readConfig()
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if *scheduleSpec != "" {
			cfg.Schedule = *scheduleSpec
		}
		token, err := requireToken()
		if err != nil {
			return err
		}

		telemetry.InstrumentPerfStats(ctx)

		// shared by the cron ticks and --now so the two never overlap
		job := chrono.SkipIfRunning(func() {
			err := runOnce(ctx, cfg, token, cmd.OutOrStdout())
			if err != nil {
				slog.Error("scheduled run failed", "err", err)
			}
		})

		cron := chrono.NewStandardCron()
		err = cron.Cron(cfg.Schedule, job)
		if err != nil {
			<-cron.Stop().Done()
			return fmt.Errorf("invalid schedule: %w", err)
		}
		slog.Info("scheduled", "spec", cfg.Schedule, "output_dir", cfg.OutputDir)

		if *scheduleNow {
			job()
		}

		<-ctx.Done()
		slog.Info("stopping, waiting for the running job to finish")
		<-cron.Stop().Done()
		return nil
	},
}
