/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"airwatch/internal/bootstrap/logging"
	"airwatch/internal/bootstrap/probes"
	"airwatch/internal/errs"
)

// serveCmd represents the serve command. Startup order: storage directories
// and the database are ready once the container starts; then dependency
// probes run, the schema migrates, and only then does anything listen.
// A failed required probe or failed migration aborts startup.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server, job runner, and upload watcher",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		results := probes.RunAll(ctx, deps.Checks)
		if err := probes.FirstRequiredFailure(results); err != nil {
			return errs.Wrap(err, "dependency check")
		}

		if err := deps.App.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		server := &http.Server{
			Addr:    deps.App.Config.Server.Addr(),
			Handler: deps.Router.Handler(),
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			logging.Info(gctx, "http server listening",
				slog.String("addr", server.Addr),
				slog.String("docs", "/docs/index.html"),
			)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errs.Wrap(err, "serve http")
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		g.Go(func() error {
			return deps.Runner.Run(gctx)
		})

		if deps.Watcher != nil {
			g.Go(func() error {
				return deps.Watcher.Run(gctx)
			})
		}

		if err := g.Wait(); err != nil {
			logging.Error(ctx, "serve terminated", slog.Any("err", errs.Loggable(err)))
			return err
		}
		logging.Info(ctx, "serve shut down cleanly")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
