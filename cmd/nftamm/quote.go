package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/krazyTry/nft-amm-go/amm"
	"github.com/krazyTry/nft-amm-go/amm/helpers"
	ammmath "github.com/krazyTry/nft-amm-go/amm/math"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Print the price ladder of a pool configuration",
		RunE:  runQuote,
	}
	cmd.Flags().String("type", "trade", "pool type (token, nft, trade)")
	cmd.Flags().String("curve", "linear", "curve type (linear, exponential)")
	cmd.Flags().String("start", "1", "starting price in SOL")
	cmd.Flags().String("delta", "0", "linear delta in SOL, or exponential delta in basis points")
	cmd.Flags().Uint16("mm-fee-bps", 0, "market making fee of a trade pool")
	cmd.Flags().Int32("offset", 0, "first price offset")
	cmd.Flags().Int("steps", 5, "number of offsets to print")
	cmd.Flags().String("maker-broker", "", "maker broker of the pool")
	cmd.Flags().Bool("taker-broker", false, "quote with a taker broker present")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	poolType, _ := flags.GetString("type")
	curve, _ := flags.GetString("curve")
	start, _ := flags.GetString("start")
	delta, _ := flags.GetString("delta")
	mmFeeBps, _ := flags.GetUint16("mm-fee-bps")
	offset, _ := flags.GetInt32("offset")
	steps, _ := flags.GetInt("steps")
	makerBroker, _ := flags.GetString("maker-broker")
	takerBroker, _ := flags.GetBool("taker-broker")

	config, err := quoteConfig(poolType, curve, start, delta, mmFeeBps)
	if err != nil {
		return err
	}
	pool := &shared.Pool{Config: config}
	if makerBroker != "" {
		if pool.MakerBroker, err = solanago.PublicKeyFromBase58(makerBroker); err != nil {
			return fmt.Errorf("invalid maker-broker: %w", err)
		}
	}
	return printLadder(cmd.OutOrStdout(), pool, offset, steps, takerBroker)
}

func quoteConfig(poolType, curve, start, delta string, mmFeeBps uint16) (shared.PoolConfig, error) {
	var config shared.PoolConfig
	switch poolType {
	case "token":
		config.PoolType = shared.PoolTypeToken
	case "nft":
		config.PoolType = shared.PoolTypeNFT
	case "trade":
		config.PoolType = shared.PoolTypeTrade
		config.MmFeeBps = shared.SomeU16(mmFeeBps)
	default:
		return config, fmt.Errorf("unknown pool type %q", poolType)
	}

	var err error
	if config.StartingPrice, err = helpers.SolToLamports(start); err != nil {
		return config, fmt.Errorf("invalid start: %w", err)
	}
	switch curve {
	case "linear":
		config.CurveType = shared.CurveTypeLinear
		config.Delta, err = helpers.SolToLamports(delta)
	case "exponential":
		config.CurveType = shared.CurveTypeExponential
		config.Delta, err = strconv.ParseUint(delta, 10, 64)
	default:
		return config, fmt.Errorf("unknown curve %q", curve)
	}
	if err != nil {
		return config, fmt.Errorf("invalid delta: %w", err)
	}
	return config, helpers.ValidatePoolConfig(config)
}

// printLadder writes the quotes of steps consecutive offsets. Sides the pool
// does not trade are left blank.
func printLadder(out io.Writer, pool *shared.Pool, offset int32, steps int, takerBroker bool) error {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"offset", "buy price", "buy total", "sell price", "sell total"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for i := 0; i < steps; i++ {
		var err error
		if pool.PriceOffset, err = ammmath.AddI32(offset, int32(i)); err != nil {
			return fmt.Errorf("offset %d+%d: %w", offset, i, err)
		}
		row := []string{strconv.Itoa(int(pool.PriceOffset))}
		for _, side := range []shared.TakerSide{shared.TakerSideBuy, shared.TakerSideSell} {
			q, err := amm.PriceQuote(pool, side, takerBroker, amm.RoyaltyParams{})
			switch {
			case errors.Is(err, shared.ErrWrongPoolType):
				row = append(row, "-", "-")
			case err != nil:
				return fmt.Errorf("offset %d: %w", pool.PriceOffset, err)
			default:
				row = append(row, helpers.LamportsToSol(q.Price).String(), helpers.LamportsToSol(q.Total).String())
			}
		}
		table.Append(row)
	}
	table.Render()
	return nil
}
