package cli

import (
	"github.com/spf13/cobra"

	"github.com/build-flow-labs/vendorscore/internal/sourcing/dashboard"
	"github.com/build-flow-labs/vendorscore/internal/sourcing/server"
)

var (
	serveAddr   string
	serveRecord bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the vendor ranking API",
	Long: `Scores the configured source once at startup and serves the results:

  GET  /healthz               liveness
  GET  /status                run count and last error
  GET  /api/vendors           ranked list (sort, region, component, mode, limit)
  GET  /api/vendors/{id}      parts, contributions, flags and history
  GET  /api/weights           current weights
  POST /api/weights           replace weights (all four pillars required)
  POST /api/recompute         re-fetch and re-score
  GET  /api/summary           executive summary
  GET  /api/trends            per-vendor score series

Stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from server.addr)")
	serveCmd.Flags().BoolVar(&serveRecord, "record", false, "Record a snapshot on every recompute")
}

func runServe(cmd *cobra.Command, args []string) error {
	runner, closeFn, err := newRunner(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := server.New(server.Config{
		Addr:            addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
		Record:          serveRecord,
	}, runner, dashboard.NewIndex(cfg.Thresholds.StaleDays), logger)

	return srv.Start(cmd.Context())
}
