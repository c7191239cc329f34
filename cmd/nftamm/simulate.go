package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/krazyTry/nft-amm-go/amm"
	"github.com/krazyTry/nft-amm-go/metrics"
	"github.com/krazyTry/nft-amm-go/scenario"
	"github.com/krazyTry/nft-amm-go/store/backend"
)

func newSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <script.json>",
		Short: "Replay a scenario script against the configured account store",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulate,
	}
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	script, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	db, err := backend.Open(cfg.DBBackend, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	stopMetrics := serveMetrics(cmd.Context(), cfg.MetricsAddr, logger)
	defer stopMetrics()

	runner := scenario.NewRunner(db, logger,
		amm.WithProgramID(cfg.ProgramID),
		amm.WithCapabilityVerifier(amm.NewAllowList(cfg.TrustedPrograms...)),
		amm.WithMetrics(metrics.AMM()),
	)
	logger.Info("simulation start",
		zap.String("script", args[0]),
		zap.String("db_backend", cfg.DBBackend),
		zap.Stringer("program_id", cfg.ProgramID),
	)

	report, err := runner.Run(cmd.Context(), script)
	if report != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	return nil
}
