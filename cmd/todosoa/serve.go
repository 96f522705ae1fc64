package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/todosoa"
	httpAdapter "github.com/aretw0/todosoa/internal/adapters/http"
	"github.com/aretw0/todosoa/internal/cli"
	"github.com/aretw0/todosoa/internal/presentation/tui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin server and the interactive list",
	Long: `Starts the admin HTTP server (/health, /info, /metrics, /view, /events)
and reads list commands from stdin until quit, EOF or a signal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Admin.Addr
		}
		headless, _ := cmd.Flags().GetBool("headless")

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		return withApp(sc, reg, func(ctx context.Context, app *todosoa.App) error {
			srv := &http.Server{
				Addr:    addr,
				Handler: httpAdapter.NewHandler(app, reg, logger),
			}

			// Channel to listen for errors coming from the listener.
			serverErrors := make(chan error, 1)
			go func() {
				logger.Info("Admin server listening", "addr", srv.Addr)
				serverErrors <- srv.ListenAndServe()
			}()

			// The controller ends the session on quit or EOF.
			done := make(chan error, 1)
			if headless {
				go func() { <-ctx.Done(); done <- ctx.Err() }()
			} else {
				tui.PrintBanner(cmd.OutOrStdout(), todosoa.Version)
				controller := cli.NewController(app, cmd.OutOrStdout(), tui.SnapshotPrinter(os.Stdout), logger)
				go func() { done <- controller.Run(ctx, cmd.InOrStdin()) }()
			}

			var runErr error
			select {
			case err := <-serverErrors:
				if !errors.Is(err, http.ErrServerClosed) {
					runErr = err
				}
			case err := <-done:
				runErr = cli.HandleExecutionError(err)
				if sig := sc.Signal(); sig != nil {
					logger.Info("Start shutdown", "signal", sig.String())
				}
			}

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "err", err)
				}
			}
			logger.Info("Admin server stopped")
			return runErr
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Admin listen address (default: admin.addr)")
	serveCmd.Flags().Bool("headless", false, "Serve the admin surface only, without reading stdin")
}
