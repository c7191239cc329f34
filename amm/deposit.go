package amm

import (
	"context"

	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	ammmath "github.com/krazyTry/nft-amm-go/amm/math"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

func holdsNfts(pool *shared.Pool) bool {
	return pool.Config.PoolType == shared.PoolTypeNFT || pool.Config.PoolType == shared.PoolTypeTrade
}

func holdsCurrency(pool *shared.Pool) bool {
	return pool.Config.PoolType == shared.PoolTypeToken || pool.Config.PoolType == shared.PoolTypeTrade
}

// verifyWhitelist checks mint against the pool's whitelist. whitelist is the
// gate the caller resolved and must be the one recorded on the pool.
func (tx *txn) verifyWhitelist(pool *shared.Pool, whitelist, mint solanago.PublicKey, proof [][]byte) error {
	if !pool.Whitelist.Equals(whitelist) {
		return shared.ErrBadWhitelist
	}
	ok, err := tx.e.whitelist.Verify(tx.ctx, whitelist, mint, proof)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrWhitelistVerificationFailed
	}
	return nil
}

// DepositNft moves an NFT from the owner into pool custody and returns the
// receipt proving it.
func (e *Engine) DepositNft(ctx context.Context, params DepositNftParams) (solanago.PublicKey, error) {
	var receipt solanago.PublicKey
	err := e.run(ctx, "deposit_nft", func(tx *txn) error {
		pool, err := tx.loadOwnedPool(params.Pool, params.Owner)
		if err != nil {
			return err
		}
		if !holdsNfts(pool) {
			return shared.ErrWrongPoolType
		}
		if err = tx.requireActive(pool); err != nil {
			return err
		}
		if err = tx.verifyWhitelist(pool, params.Whitelist, params.Mint, params.Proof); err != nil {
			return err
		}
		if receipt, err = tx.receipts().Open(params.Owner, params.Mint, params.Pool); err != nil {
			return err
		}
		if pool.NftsHeld, err = incU32(pool.NftsHeld); err != nil {
			return err
		}
		tx.queueTransfer(AssetTransferRequest{
			Mint:      params.Mint,
			From:      params.Owner,
			To:        params.Pool,
			Authority: params.Owner,
		})
		return tx.savePool(params.Pool, pool)
	}, zap.Stringer("pool", params.Pool), zap.Stringer("mint", params.Mint))
	if err != nil {
		return solanago.PublicKey{}, err
	}
	return receipt, nil
}

// WithdrawNft returns an NFT held by the pool to its owner. Withdrawals are
// allowed after expiry.
func (e *Engine) WithdrawNft(ctx context.Context, params WithdrawNftParams) error {
	return e.run(ctx, "withdraw_nft", func(tx *txn) error {
		pool, err := tx.loadOwnedPool(params.Pool, params.Owner)
		if err != nil {
			return err
		}
		if !holdsNfts(pool) {
			return shared.ErrWrongPoolType
		}
		receipt, err := tx.receipts().Resolve(params.Receipt, params.Mint, params.Pool)
		if err != nil {
			return err
		}
		if err = tx.receipts().Close(receipt, params.Owner); err != nil {
			return err
		}
		if pool.NftsHeld, err = decU32(pool.NftsHeld); err != nil {
			return err
		}
		tx.queueTransfer(AssetTransferRequest{
			Mint:      params.Mint,
			From:      params.Pool,
			To:        params.Owner,
			Authority: params.Pool,
		})
		return tx.savePool(params.Pool, pool)
	}, zap.Stringer("pool", params.Pool), zap.Stringer("mint", params.Mint))
}

// loadFundablePool loads a Token or Trade pool holding its own currency.
func (tx *txn) loadFundablePool(address, owner solanago.PublicKey) (*shared.Pool, error) {
	pool, err := tx.loadOwnedPool(address, owner)
	if err != nil {
		return nil, err
	}
	if !holdsCurrency(pool) {
		return nil, shared.ErrWrongPoolType
	}
	if pool.IsOnSharedEscrow() {
		return nil, shared.ErrPoolOnSharedEscrow
	}
	return pool, nil
}

// DepositSol adds lamports to the pool's principal.
func (e *Engine) DepositSol(ctx context.Context, owner, poolAddress solanago.PublicKey, lamports uint64) error {
	return e.run(ctx, "deposit_sol", func(tx *txn) error {
		pool, err := tx.loadFundablePool(poolAddress, owner)
		if err != nil {
			return err
		}
		if err = tx.requireActive(pool); err != nil {
			return err
		}
		if pool.Amount, err = ammmath.AddU64(pool.Amount, lamports); err != nil {
			return err
		}
		if err = tx.pay(owner, poolAddress, lamports, ""); err != nil {
			return err
		}
		return tx.savePool(poolAddress, pool)
	}, zap.Stringer("pool", poolAddress), zap.Uint64("lamports", lamports))
}

// WithdrawSol takes lamports out of the pool's principal. The rent reserve
// can only be recovered by closing the pool.
func (e *Engine) WithdrawSol(ctx context.Context, owner, poolAddress solanago.PublicKey, lamports uint64) error {
	return e.run(ctx, "withdraw_sol", func(tx *txn) error {
		pool, err := tx.loadFundablePool(poolAddress, owner)
		if err != nil {
			return err
		}
		if lamports > pool.Amount {
			return shared.ErrPoolKeepAlive
		}
		pool.Amount -= lamports
		if err = tx.pay(poolAddress, owner, lamports, ""); err != nil {
			return err
		}
		return tx.savePool(poolAddress, pool)
	}, zap.Stringer("pool", poolAddress), zap.Uint64("lamports", lamports))
}

// WithdrawMmFee pays accumulated market making profit out to the owner.
func (e *Engine) WithdrawMmFee(ctx context.Context, owner, poolAddress solanago.PublicKey, lamports uint64) error {
	return e.run(ctx, "withdraw_mm_fee", func(tx *txn) error {
		pool, err := tx.loadOwnedPool(poolAddress, owner)
		if err != nil {
			return err
		}
		if pool.Config.PoolType != shared.PoolTypeTrade {
			return shared.ErrWrongPoolType
		}
		if pool.Config.MmCompoundFees {
			return shared.ErrPoolFeesCompounded
		}
		if lamports > pool.Stats.AccumulatedMmProfit {
			return shared.ErrInsufficientBalance
		}
		pool.Stats.AccumulatedMmProfit -= lamports
		if err = tx.pay(poolAddress, owner, lamports, ""); err != nil {
			return err
		}
		return tx.savePool(poolAddress, pool)
	}, zap.Stringer("pool", poolAddress), zap.Uint64("lamports", lamports))
}
