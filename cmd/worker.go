/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"airwatch/internal/bootstrap/logging"
	"airwatch/internal/errs"
)

var workerOnce bool

// workerCmd represents the worker command group
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Analysis job worker",
}

// workerRunCmd polls for pending jobs and executes them. With --once, it
// processes at most one job and exits; useful for cron and debugging.
var workerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the job worker loop",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		if workerOnce {
			processed, err := deps.Runner.RunOnce(ctx)
			if err != nil {
				return errs.Wrap(err, "run one job")
			}
			if !processed {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no pending jobs"); err != nil {
					return errs.Wrap(err, "write worker output")
				}
			}
			return nil
		}

		return deps.Runner.Run(ctx)
	}),
}

func init() {
	workerRunCmd.Flags().BoolVar(&workerOnce, "once", false, "Process at most one job, then exit")
	workerCmd.AddCommand(workerRunCmd)
	rootCmd.AddCommand(workerCmd)
}
