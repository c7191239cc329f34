package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
)

const (
	// AccountStorageOverhead is charged on top of every account's data size.
	AccountStorageOverhead uint64 = 128
	// DefaultLamportsPerByteYear is the rent rate of the Solana runtime.
	DefaultLamportsPerByteYear uint64 = 3480
	// DefaultExemptionThreshold is the number of years of rent an account
	// must hold to be exempt.
	DefaultExemptionThreshold uint64 = 2
)

// Rent reports the balance an account of size bytes must keep to stay alive.
type Rent interface {
	MinimumBalance(size uint64) uint64
}

// DefaultRent applies the runtime's default rent parameters.
type DefaultRent struct{}

func (DefaultRent) MinimumBalance(size uint64) uint64 {
	return (size + AccountStorageOverhead) * DefaultLamportsPerByteYear * DefaultExemptionThreshold
}

// RPCRent serves rent exemption minimums fetched from a cluster. Sizes that
// were not prefetched fall back to DefaultRent.
type RPCRent struct {
	minimum map[uint64]uint64
}

// NewRPCRent prefetches the exemption minimum of every size.
func NewRPCRent(ctx context.Context, rpcClient *rpc.Client, sizes ...uint64) (*RPCRent, error) {
	r := &RPCRent{minimum: make(map[uint64]uint64, len(sizes))}
	for _, size := range sizes {
		lamports, err := rpcClient.GetMinimumBalanceForRentExemption(ctx, size, rpc.CommitmentFinalized)
		if err != nil {
			return nil, fmt.Errorf("failed to get rent exemption for %d bytes: %w", size, err)
		}
		r.minimum[size] = lamports
	}
	return r, nil
}

func (r *RPCRent) MinimumBalance(size uint64) uint64 {
	if lamports, ok := r.minimum[size]; ok {
		return lamports
	}
	return DefaultRent{}.MinimumBalance(size)
}
