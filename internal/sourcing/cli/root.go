package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/build-flow-labs/vendorscore/internal/sourcing/config"
	"github.com/build-flow-labs/vendorscore/internal/sourcing/datastore"
	"github.com/build-flow-labs/vendorscore/internal/sourcing/history"
	"github.com/build-flow-labs/vendorscore/internal/sourcing/pipeline"
	"github.com/build-flow-labs/vendorscore/internal/sourcing/score"
	"github.com/build-flow-labs/vendorscore/schema"
)

var (
	configFile string

	// Populated by loadConfig before any subcommand runs.
	cfg    *config.Config
	logger *slog.Logger
)

// RootCmd is the vendorscore command.
var RootCmd = &cobra.Command{
	Use:   "vendorscore",
	Short: "Rank component vendors on cost, time, maturity and capacity",
	Long: `vendorscore fetches vendor and part records, scores every vendor on four
pillars relative to the batch, and flags operational and compliance risks.

Pillars:
  Total cost   landed cost (unit price + freight + tariff), lower is better
  Total time   lead time + transit, lower is better
  Maturity     enhanced attributes when available, else a region/freshness proxy
  Capacity     monthly units across all parts

Configuration comes from vendorscore.yaml, VENDORSCORE_* environment
variables and flags, in increasing order of precedence.`,
	Version:           schema.Version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// flagKeys maps config keys to persistent flag names.
var flagKeys = map[string]string{
	"source.kind":      "source",
	"source.file.path": "file",
	"history.dsn":      "history-dsn",
	"log.level":        "log-level",
	"log.format":       "log-format",
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default: ./vendorscore.yaml or ~/.config/vendorscore/vendorscore.yaml)")
	pf.String("source", config.SourceFile, "Data source: file, notion or github")
	pf.String("file", "vendors.yaml", "Dataset file for the file source")
	pf.String("history-dsn", "", "Snapshot store: SQLite path, postgres:// or mysql:// DSN")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text or json")

	RootCmd.AddCommand(scoreCmd)
	RootCmd.AddCommand(weightsCmd)
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(historyCmd)
	RootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	v := config.NewViper()
	if err := config.BindFlags(v, cmd.Flags(), flagKeys); err != nil {
		return err
	}
	loaded, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	l, err := loaded.Log.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	return nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

func newEngine() *score.Engine {
	return score.New(
		score.WithWeights(cfg.Weights.ToWeights()),
		score.WithThresholds(cfg.Thresholds),
		score.WithLogger(logger),
	)
}

// openHistory opens the snapshot store, or returns nil when none is
// configured.
func openHistory() (*history.Store, error) {
	if cfg.History.DSN == "" {
		return nil, nil
	}
	return history.Open(cfg.History.DSN)
}

func requireHistory() (*history.Store, error) {
	if cfg.History.DSN == "" {
		return nil, fmt.Errorf("no snapshot store configured (set history.dsn or --history-dsn)")
	}
	return history.Open(cfg.History.DSN)
}

// newRunner builds the pipeline from config. The returned close func
// releases the history store.
func newRunner(ctx context.Context) (*pipeline.Runner, func(), error) {
	src, err := datastore.Open(ctx, cfg.Source, logger)
	if err != nil {
		return nil, nil, err
	}
	store, err := openHistory()
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {}
	var hs pipeline.HistoryStore
	if store != nil {
		hs = store
		closeFn = func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing history store", "error", err)
			}
		}
	}
	return pipeline.New(src, newEngine(), hs, logger), closeFn, nil
}
