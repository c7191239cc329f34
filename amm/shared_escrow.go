package amm

import (
	"context"

	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	ammmath "github.com/krazyTry/nft-amm-go/amm/math"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

// CreateSharedEscrow opens the owner's escrow number nr.
func (e *Engine) CreateSharedEscrow(ctx context.Context, owner solanago.PublicKey, nr uint16, name [32]byte) (solanago.PublicKey, error) {
	address, bump, err := helpers.DeriveSharedEscrowAddress(e.programID, owner, nr)
	if err != nil {
		return solanago.PublicKey{}, err
	}
	err = e.run(ctx, "create_shared_escrow", func(tx *txn) error {
		data, err := helpers.EncodeSharedEscrow(&shared.SharedEscrow{
			Version: shared.CurrentSharedEscrowVersion,
			Bump:    bump,
			Owner:   owner,
			Name:    name,
			Nr:      nr,
		})
		if err != nil {
			return err
		}
		return tx.createAccount(address, owner, shared.SharedEscrowSize, data)
	}, zap.Stringer("escrow", address), zap.Stringer("owner", owner))
	if err != nil {
		return solanago.PublicKey{}, err
	}
	return address, nil
}

func (tx *txn) loadOwnedSharedEscrow(address, owner solanago.PublicKey) (*shared.SharedEscrow, error) {
	escrow, err := tx.loadSharedEscrow(address)
	if err != nil {
		return nil, err
	}
	if !escrow.Owner.Equals(owner) {
		return nil, shared.ErrWrongOwner
	}
	return escrow, nil
}

func (e *Engine) DepositSharedEscrow(ctx context.Context, owner, escrowAddress solanago.PublicKey, lamports uint64) error {
	return e.run(ctx, "deposit_shared_escrow", func(tx *txn) error {
		escrow, err := tx.loadOwnedSharedEscrow(escrowAddress, owner)
		if err != nil {
			return err
		}
		if escrow.Balance, err = ammmath.AddU64(escrow.Balance, lamports); err != nil {
			return err
		}
		if err = tx.pay(owner, escrowAddress, lamports, ""); err != nil {
			return err
		}
		return tx.saveSharedEscrow(escrowAddress, escrow)
	}, zap.Stringer("escrow", escrowAddress), zap.Uint64("lamports", lamports))
}

func (e *Engine) WithdrawSharedEscrow(ctx context.Context, owner, escrowAddress solanago.PublicKey, lamports uint64) error {
	return e.run(ctx, "withdraw_shared_escrow", func(tx *txn) error {
		escrow, err := tx.loadOwnedSharedEscrow(escrowAddress, owner)
		if err != nil {
			return err
		}
		return tx.spendSharedEscrow(escrowAddress, escrow, owner, lamports)
	}, zap.Stringer("escrow", escrowAddress), zap.Uint64("lamports", lamports))
}

// WithdrawSharedEscrowWithCapability lets a cooperating program spend an
// escrow on its owner's behalf, for example to settle a bid it filled.
func (e *Engine) WithdrawSharedEscrowWithCapability(ctx context.Context, capability Capability, escrowAddress, destination solanago.PublicKey, lamports uint64) error {
	return e.run(ctx, "withdraw_shared_escrow_capability", func(tx *txn) error {
		escrow, err := tx.loadSharedEscrow(escrowAddress)
		if err != nil {
			return err
		}
		if err = tx.e.capabilities.Verify(tx.ctx, capability, escrow); err != nil {
			return err
		}
		return tx.spendSharedEscrow(escrowAddress, escrow, destination, lamports)
	}, zap.Stringer("escrow", escrowAddress), zap.Stringer("program", capability.Program), zap.Uint64("lamports", lamports))
}

func (tx *txn) spendSharedEscrow(address solanago.PublicKey, escrow *shared.SharedEscrow, destination solanago.PublicKey, lamports uint64) error {
	if lamports > escrow.Balance {
		return shared.ErrInsufficientBalance
	}
	escrow.Balance -= lamports
	if err := tx.pay(address, destination, lamports, ""); err != nil {
		return err
	}
	return tx.saveSharedEscrow(address, escrow)
}

// CloseSharedEscrow closes an escrow no pool draws on and returns everything
// it holds to the owner.
func (e *Engine) CloseSharedEscrow(ctx context.Context, owner, escrowAddress solanago.PublicKey) error {
	return e.run(ctx, "close_shared_escrow", func(tx *txn) error {
		escrow, err := tx.loadOwnedSharedEscrow(escrowAddress, owner)
		if err != nil {
			return err
		}
		if escrow.PoolsAttached > 0 {
			return shared.ErrSharedEscrowInUse
		}
		return tx.closeAccount(escrowAddress, shared.SharedEscrowSize, owner, owner)
	}, zap.Stringer("escrow", escrowAddress))
}

// AttachPoolToSharedEscrow moves the pool's spare lamports into the escrow
// and funds the pool's bids from it from then on.
func (e *Engine) AttachPoolToSharedEscrow(ctx context.Context, owner, poolAddress, escrowAddress solanago.PublicKey) error {
	return e.run(ctx, "attach_pool", func(tx *txn) error {
		pool, err := tx.loadOwnedPool(poolAddress, owner)
		if err != nil {
			return err
		}
		if !holdsCurrency(pool) {
			return shared.ErrWrongPoolType
		}
		if pool.IsOnSharedEscrow() {
			return shared.ErrPoolOnSharedEscrow
		}
		escrow, err := tx.loadSharedEscrow(escrowAddress)
		if err != nil {
			return err
		}
		if !escrow.Owner.Equals(pool.Owner) {
			return shared.ErrBadSharedEscrow
		}

		spare, err := tx.spare(poolAddress, shared.PoolSize)
		if err != nil {
			return err
		}
		if escrow.Balance, err = ammmath.AddU64(escrow.Balance, spare); err != nil {
			return err
		}
		if escrow.PoolsAttached, err = incU32(escrow.PoolsAttached); err != nil {
			return err
		}
		if err = tx.pay(poolAddress, escrowAddress, spare, ""); err != nil {
			return err
		}
		pool.Amount = 0
		pool.Stats.AccumulatedMmProfit = 0
		pool.SharedEscrow = escrowAddress
		tx.attached++

		if err = tx.saveSharedEscrow(escrowAddress, escrow); err != nil {
			return err
		}
		return tx.savePool(poolAddress, pool)
	}, zap.Stringer("pool", poolAddress), zap.Stringer("escrow", escrowAddress))
}

// DetachPoolFromSharedEscrow moves lamports from the escrow back into the
// pool's principal and funds the pool directly again.
func (e *Engine) DetachPoolFromSharedEscrow(ctx context.Context, owner, poolAddress, escrowAddress solanago.PublicKey, lamports uint64) error {
	return e.run(ctx, "detach_pool", func(tx *txn) error {
		pool, err := tx.loadOwnedPool(poolAddress, owner)
		if err != nil {
			return err
		}
		if !pool.IsOnSharedEscrow() {
			return shared.ErrPoolNotOnSharedEscrow
		}
		if !pool.SharedEscrow.Equals(escrowAddress) {
			return shared.ErrBadSharedEscrow
		}
		escrow, err := tx.loadSharedEscrow(escrowAddress)
		if err != nil {
			return err
		}
		if lamports > escrow.Balance {
			return shared.ErrInsufficientBalance
		}
		if escrow.PoolsAttached, err = decU32(escrow.PoolsAttached); err != nil {
			return err
		}
		if pool.Amount, err = ammmath.AddU64(pool.Amount, lamports); err != nil {
			return err
		}
		escrow.Balance -= lamports
		if err = tx.pay(escrowAddress, poolAddress, lamports, ""); err != nil {
			return err
		}
		pool.SharedEscrow = solanago.PublicKey{}
		tx.attached--

		if err = tx.saveSharedEscrow(escrowAddress, escrow); err != nil {
			return err
		}
		return tx.savePool(poolAddress, pool)
	}, zap.Stringer("pool", poolAddress), zap.Stringer("escrow", escrowAddress), zap.Uint64("lamports", lamports))
}
