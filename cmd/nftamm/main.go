package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/krazyTry/nft-amm-go/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "nftamm",
		Short:        "NFT AMM pool pricing and accounting",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("db-backend", "memory", "account store backend (memory, pebble, bbolt, leveldb)")
	flags.String("db-path", "./data", "account store directory")
	flags.String("program-id", "", "AMM program id")
	flags.StringSlice("trusted-programs", nil, "programs allowed to spend shared escrows (comma-separated)")
	flags.String("rpc", "", "Solana RPC URL")
	flags.String("commitment", "", "RPC commitment")
	flags.String("metrics-addr", "", "serve prometheus metrics on this address")

	root.AddCommand(newQuoteCmd(), newSimulateCmd(), newPoolCmd())
	return root
}

// loadConfig merges the flags of cmd with the environment and config file.
// Flags left at their defaults do not override the other sources.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// serveMetrics exposes the default prometheus registry until ctx is done.
func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
