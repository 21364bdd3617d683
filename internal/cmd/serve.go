package cmd

import (
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slurmdeck/slurmdeck/internal/observability"
	"github.com/slurmdeck/slurmdeck/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve job and history snapshots as a read-only JSON API",
	Long: `Run the HTTP API. Endpoints:

  GET /api/v1/jobs     current active-job snapshot (refreshes on request)
  GET /api/v1/history  accounting history snapshot
  GET /healthz         liveness probe

Example:
  slurmdeck serve
  slurmdeck serve --port 9000`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Bind port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := newManager()
	defer m.Close()

	host := cfg.Server.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	srv := server.New(host, port, m, observability.CLILogger)
	srv.ReadTimeout = cfg.Server.ReadTimeout
	srv.WriteTimeout = cfg.Server.WriteTimeout
	srv.IdleTimeout = cfg.Server.IdleTimeout
	srv.ShutdownTimeout = cfg.Server.ShutdownTimeout

	if err := srv.Start(ctx); err != nil {
		observability.CLILogger.Error("API server failed", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "API server failed", err)
	}
	return nil
}
