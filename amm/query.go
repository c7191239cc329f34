package amm

import (
	"context"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	"github.com/krazyTry/nft-amm-go/amm/shared"
	"github.com/krazyTry/nft-amm-go/state"
)

// PoolAddress derives the address of owner's pool with the given id.
func (e *Engine) PoolAddress(owner solanago.PublicKey, poolID [32]byte) (solanago.PublicKey, error) {
	address, _, err := helpers.DerivePoolAddress(e.programID, owner, poolID)
	return address, err
}

// SharedEscrowAddress derives the address of owner's escrow number nr.
func (e *Engine) SharedEscrowAddress(owner solanago.PublicKey, nr uint16) (solanago.PublicKey, error) {
	address, _, err := helpers.DeriveSharedEscrowAddress(e.programID, owner, nr)
	return address, err
}

func (e *Engine) GetPool(ctx context.Context, address solanago.PublicKey) (*shared.Pool, error) {
	var pool *shared.Pool
	err := e.inspect(ctx, func(tx *txn) error {
		var err error
		pool, err = tx.loadPool(address)
		return err
	})
	return pool, err
}

func (e *Engine) GetSharedEscrow(ctx context.Context, address solanago.PublicKey) (*shared.SharedEscrow, error) {
	var escrow *shared.SharedEscrow
	err := e.inspect(ctx, func(tx *txn) error {
		var err error
		escrow, err = tx.loadSharedEscrow(address)
		return err
	})
	return escrow, err
}

// GetReceipt looks up the deposit receipt of (mint, pool). ok is false when
// the pool does not hold mint.
func (e *Engine) GetReceipt(ctx context.Context, mint, pool solanago.PublicKey) (address solanago.PublicKey, receipt *shared.DepositReceipt, ok bool, err error) {
	err = e.inspect(ctx, func(tx *txn) error {
		var err error
		address, receipt, ok, err = tx.receipts().Lookup(mint, pool)
		return err
	})
	return address, receipt, ok, err
}

func (e *Engine) GetListing(ctx context.Context, mint solanago.PublicKey) (solanago.PublicKey, *shared.SingleListing, error) {
	var (
		address solanago.PublicKey
		listing *shared.SingleListing
	)
	err := e.inspect(ctx, func(tx *txn) error {
		var err error
		address, listing, err = tx.loadOwnedListing(mint, solanago.PublicKey{})
		return err
	})
	return address, listing, err
}

type PoolEntry struct {
	Address solanago.PublicKey
	Pool    *shared.Pool
}

// Pools lists every pool in the store, optionally only those of owner.
func (e *Engine) Pools(ctx context.Context, owner *solanago.PublicKey) ([]PoolEntry, error) {
	var pools []PoolEntry
	err := e.inspect(ctx, func(tx *txn) error {
		return state.ForEach(ctx, e.db, func(address solanago.PublicKey, account *state.Account) error {
			if !helpers.IsAccount(shared.AccountKeyPool, account.Data) {
				return nil
			}
			pool, err := helpers.DecodePool(account.Data)
			if err != nil {
				return err
			}
			if owner != nil && !pool.Owner.Equals(*owner) {
				return nil
			}
			pools = append(pools, PoolEntry{Address: address, Pool: pool})
			return nil
		})
	})
	return pools, err
}
