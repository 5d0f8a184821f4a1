package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yash/flightprice/internal/memory"
	"github.com/yash/flightprice/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Loads the model, lookup tables and history store, then serves the quote API
until interrupted. Runtime tuning (GOMAXPROCS, GC percent, memory limit) is
applied from the runtime.* settings before anything is loaded.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", "0.0.0.0", "listen address")
	f.Int("port", 8080, "listen port")
	f.String("model", "", "model file (JSON export)")
	f.String("tables", "", "lookup tables YAML (default: built-in)")
	f.Int("min-duration", 30, "reject flights at or below this many minutes")
	f.String("history-dsn", "flightprice.db", "history store sqlite DSN")
	f.String("history-csv", "", "dataset imported into an empty history store")
	f.Bool("include-vector", false, "include the encoded vector in quote responses")
	f.String("memory-mode", "normal", "runtime preset: normal, reduced or aggressive")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Runtime.Apply()
	logger.Info("runtime configured",
		zap.Stringer("memory_mode", cfg.Runtime.Mode),
		zap.Int("gomaxprocs", runtime.GOMAXPROCS(0)),
		zap.Int("gc_percent", cfg.Runtime.GCPercent),
		zap.Int("memory_limit_mb", cfg.Runtime.MemoryLimitMB),
		zap.Bool("shed_on_pressure", cfg.Runtime.ShedOnPressure))

	est, err := buildEstimator()
	if err != nil {
		return err
	}

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	monitor := memory.NewMonitor(cfg.Runtime, logger)
	srv, err := server.New(server.Options{
		Estimator:       est,
		History:         store,
		Monitor:         monitor,
		Logger:          logger,
		IncludeVector:   cfg.IncludeVector,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return monitor.Run(gctx) })
	g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Addr()) })

	srv.SetReady(true)
	logger.Info("flightprice ready", zap.String("addr", cfg.Addr()))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("flightprice stopped")
	return nil
}
