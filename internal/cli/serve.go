package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-client/internal/api/http"
	"github.com/i474232898/weather-client/internal/scheduler"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the weather API over HTTP",
	Long: `Start an HTTP server exposing the weather lookup as JSON.

Routes:
  GET    /health
  GET    /api/v1/weather?q=<location>
  POST   /api/v1/weather/retry
  GET    /api/v1/location/last
  GET    /api/v1/errors
  GET    /api/v1/stats
  DELETE /api/v1/cache

A background job evicts expired snapshots and refreshes the last searched
location every REFRESH_INTERVAL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()
		log := deps.Log

		sched := scheduler.New(deps.Service, deps.Prefs.LastLocation, deps.Config.RefreshInterval, log)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()

		app := httpapi.NewApp(log, true)
		httpapi.RegisterRoutes(app, deps.Service, deps.Prefs, deps.Errors)

		port := deps.Config.Port
		if servePort != "" {
			port = servePort
		}

		go func() {
			log.Info().Str("port", port).Str("provider", deps.Provider.Name()).Msg("http: listening")
			if err := app.Listen(":" + port); err != nil {
				log.Error().Err(err).Msg("fiber server stopped")
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error during shutdown")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides env PORT)")
	rootCmd.AddCommand(serveCmd)
}
