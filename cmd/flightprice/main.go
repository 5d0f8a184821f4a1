// Command flightprice serves and queries flight price estimates.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yash/flightprice/internal/config"
	"github.com/yash/flightprice/internal/features"
	"github.com/yash/flightprice/internal/history"
	"github.com/yash/flightprice/internal/model"
	"github.com/yash/flightprice/internal/pricing"
)

var (
	cfgFile string

	// Resolved in PersistentPreRunE
	cfg    config.Config
	logger *zap.Logger
)

// flagBindings maps config keys to the CLI flags that override them. A
// command only binds the flags it declares.
var flagBindings = map[string]string{
	config.KeyVerbose:       "verbose",
	config.KeyHTTPAddr:      "addr",
	config.KeyHTTPPort:      "port",
	config.KeyIncludeVector: "include-vector",
	config.KeyModelPath:     "model",
	config.KeyTablesPath:    "tables",
	config.KeyMinDuration:   "min-duration",
	config.KeyHistoryDSN:    "history-dsn",
	config.KeyHistoryCSV:    "history-csv",
	config.KeyMemoryMode:    "memory-mode",
}

var rootCmd = &cobra.Command{
	Use:   "flightprice",
	Short: "Domestic flight price estimator",
	Long: `flightprice predicts the ticket price of a domestic Indian flight from its
itinerary, explains the features the prediction was based on, and suggests
ways to pay less.

Configuration is read from .flightprice.yaml (working directory or $HOME),
FLIGHTPRICE_* environment variables and flags, in increasing precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.New(cfgFile)
		if err != nil {
			return err
		}
		if err := config.BindFlags(v, cmd.Flags(), flagBindings); err != nil {
			return err
		}
		if cfg, err = config.Load(v); err != nil {
			return err
		}

		zc := zap.NewProductionConfig()
		if cfg.Verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		if logger, err = zc.Build(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if path := v.ConfigFileUsed(); path != "" {
			logger.Debug("using config file", zap.String("path", path))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.flightprice.yaml or $HOME/.flightprice.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, quoteCmd, schemaCmd, suggestCmd, importHistoryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// Shared construction
// ---------------------------------------------------------------------------

// loadTables returns the configured lookup tables, or the built-in ones.
func loadTables() (*features.Tables, error) {
	if cfg.TablesPath == "" {
		return features.DefaultTables(), nil
	}
	t, err := features.LoadTables(cfg.TablesPath)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded lookup tables", zap.String("path", cfg.TablesPath))
	return t, nil
}

// buildEstimator loads the model and tables named in the configuration.
func buildEstimator() (*pricing.Estimator, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("no model configured: set %s or pass --model", config.KeyModelPath)
	}
	tables, err := loadTables()
	if err != nil {
		return nil, err
	}
	p, err := model.Load(cfg.ModelPath)
	if err != nil {
		return nil, err
	}

	est, err := pricing.New(p,
		pricing.WithDeriver(features.NewDeriver(tables)),
		pricing.WithMinDuration(cfg.MinDurationMins))
	if err != nil {
		return nil, err
	}
	logger.Info("loaded model",
		zap.String("path", cfg.ModelPath),
		zap.Int("columns", est.Schema().Len()),
		zap.Int("min_duration_mins", est.MinDurationMins()))
	return est, nil
}

// openHistory opens the history store and, when it is empty and a dataset
// is configured, imports it.
func openHistory(cmd *cobra.Command) (*history.Store, error) {
	ctx := cmd.Context()
	store, err := history.Open(ctx, cfg.HistoryDSN)
	if err != nil {
		return nil, err
	}
	if cfg.HistoryCSV == "" {
		return store, nil
	}

	n, err := store.Count(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	if n > 0 {
		return store, nil
	}
	if _, err := importFile(cmd, store, cfg.HistoryCSV); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func importFile(cmd *cobra.Command, store *history.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	n, err := store.ImportCSV(cmd.Context(), f)
	if err != nil {
		return n, fmt.Errorf("import %s: %w", path, err)
	}
	logger.Info("imported history", zap.String("path", path), zap.Int("records", n))
	return n, nil
}
