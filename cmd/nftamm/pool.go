package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/krazyTry/nft-amm-go/amm"
	"github.com/krazyTry/nft-amm-go/amm/helpers"
	"github.com/krazyTry/nft-amm-go/amm/shared"
	nftsolana "github.com/krazyTry/nft-amm-go/solana"
	"github.com/krazyTry/nft-amm-go/store/backend"
)

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool [address]",
		Short: "Show pools read over RPC or from the local account store",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPool,
	}
	cmd.Flags().String("owner", "", "list every pool of this owner")
	cmd.Flags().Bool("local", false, "read the configured account store instead of the cluster")
	return cmd
}

func runPool(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if local, _ := cmd.Flags().GetBool("local"); local {
		return runLocalPools(cmd, cfg.DBBackend, cfg.DBPath, cfg.ProgramID)
	}

	rpcClient := rpc.New(cfg.RPCURL)
	states := nftsolana.NewStateService(rpcClient, cfg.ProgramID, cfg.Commitment)

	now, err := nftsolana.ClusterTime(cmd.Context(), rpcClient)
	if err != nil {
		logger.Warn("falling back to local clock", zap.Error(err))
		now = time.Now().Unix()
	}

	owner, _ := cmd.Flags().GetString("owner")
	switch {
	case owner != "":
		key, err := solanago.PublicKeyFromBase58(owner)
		if err != nil {
			return fmt.Errorf("invalid owner: %w", err)
		}
		pools, err := states.GetPoolsByOwner(cmd.Context(), key)
		if err != nil {
			return err
		}
		logger.Debug("pools loaded", zap.Stringer("owner", key), zap.Int("count", len(pools)))
		entries := make([]amm.PoolEntry, 0, len(pools))
		for _, p := range pools {
			entries = append(entries, amm.PoolEntry{Address: p.Pubkey, Pool: p.Account})
		}
		return printPools(cmd.OutOrStdout(), entries, now)
	case len(args) == 1:
		key, err := solanago.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid pool address: %w", err)
		}
		pool, err := states.GetPool(cmd.Context(), key)
		if err != nil {
			return err
		}
		return printPools(cmd.OutOrStdout(), []amm.PoolEntry{{Address: key, Pool: pool}}, now)
	}
	return errors.New("pass a pool address or --owner")
}

// runLocalPools lists the pools of a simulated account store.
func runLocalPools(cmd *cobra.Command, dbBackend, dbPath string, programID solanago.PublicKey) error {
	db, err := backend.Open(dbBackend, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var owner *solanago.PublicKey
	if s, _ := cmd.Flags().GetString("owner"); s != "" {
		key, err := solanago.PublicKeyFromBase58(s)
		if err != nil {
			return fmt.Errorf("invalid owner: %w", err)
		}
		owner = &key
	}
	engine := amm.NewEngine(db, amm.WithProgramID(programID))
	entries, err := engine.Pools(cmd.Context(), owner)
	if err != nil {
		return err
	}
	return printPools(cmd.OutOrStdout(), entries, time.Now().Unix())
}

func printPools(out io.Writer, entries []amm.PoolEntry, now int64) error {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"pool", "type", "curve", "nfts", "amount", "mm profit", "buy", "sell", "expired"})
	for _, entry := range entries {
		p := entry.Pool
		table.Append([]string{
			entry.Address.String(),
			p.Config.PoolType.String(),
			p.Config.CurveType.String(),
			strconv.FormatUint(uint64(p.NftsHeld), 10),
			helpers.LamportsToSol(p.Amount).String(),
			helpers.LamportsToSol(p.Stats.AccumulatedMmProfit).String(),
			quoteCell(p, shared.TakerSideBuy),
			quoteCell(p, shared.TakerSideSell),
			strconv.FormatBool(p.IsExpired(now)),
		})
	}
	table.Render()
	return nil
}

func quoteCell(pool *shared.Pool, side shared.TakerSide) string {
	q, err := amm.PriceQuote(pool, side, false, amm.RoyaltyParams{})
	if err != nil {
		return "-"
	}
	return helpers.LamportsToSol(q.Total).String()
}
