package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"airwatch/internal/api"
	"airwatch/internal/bootstrap"
	"airwatch/internal/bootstrap/logging"
	"airwatch/internal/bootstrap/probes"
	"airwatch/internal/errs"
	"airwatch/internal/usecase/accounts"
	"airwatch/internal/usecase/ingest"
	"airwatch/internal/usecase/jobs"
)

// appDeps bundles everything a command might need out of the container.
// The watcher is nil when upload watching is disabled in config.
type appDeps struct {
	App      *bootstrap.App
	Accounts *accounts.Service
	Ingest   *ingest.Service
	Jobs     *jobs.Service
	Runner   *jobs.Runner
	Watcher  *ingest.Watcher
	Router   *api.Router
	Checks   []probes.Probe
}

func withApp(run func(cmd *cobra.Command, deps appDeps) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		var deps appDeps
		fxApp := fx.New(
			bootstrap.Module,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.Populate(
				&deps.App,
				&deps.Accounts,
				&deps.Ingest,
				&deps.Jobs,
				&deps.Runner,
				&deps.Watcher,
				&deps.Router,
				&deps.Checks,
			),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		if err := run(cmd, deps); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}
