package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
)

// ClusterTime returns the block time of the latest finalized slot, the clock
// pool expiries are checked against on chain.
func ClusterTime(ctx context.Context, rpcClient *rpc.Client) (int64, error) {
	currentSlot, err := rpcClient.GetSlot(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("failed to get slot: %w", err)
	}
	currentTime, err := rpcClient.GetBlockTime(ctx, currentSlot)
	if err != nil {
		return 0, fmt.Errorf("failed to get block time: %w", err)
	}
	if currentTime == nil {
		return 0, fmt.Errorf("no block time for slot %d", currentSlot)
	}
	return currentTime.Time().Unix(), nil
}
