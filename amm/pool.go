package amm

import (
	"context"
	"math"

	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	ammmath "github.com/krazyTry/nft-amm-go/amm/math"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

// CreatePool opens a new pool at the address derived from (owner, pool id).
func (e *Engine) CreatePool(ctx context.Context, params CreatePoolParams) (solanago.PublicKey, error) {
	address, bump, err := helpers.DerivePoolAddress(e.programID, params.Owner, params.PoolID)
	if err != nil {
		return solanago.PublicKey{}, err
	}

	err = e.run(ctx, "create_pool", func(tx *txn) error {
		if err := helpers.ValidatePoolConfig(params.Config); err != nil {
			return err
		}
		if err := helpers.ValidateCosigner(params.Config.PoolType, !params.Cosigner.IsZero()); err != nil {
			return err
		}
		if err := helpers.ValidateCurrency(params.Currency); err != nil {
			return err
		}
		expiry, err := helpers.ResolveExpiry(tx.now, params.Expiry)
		if err != nil {
			return err
		}

		rentPayer := params.RentPayer
		if rentPayer.IsZero() {
			rentPayer = params.Owner
		}
		pool := &shared.Pool{
			Version:           shared.CurrentPoolVersion,
			Bump:              [1]uint8{bump},
			PoolId:            params.PoolID,
			CreatedAt:         tx.now,
			UpdatedAt:         tx.now,
			Expiry:            expiry,
			Owner:             params.Owner,
			Whitelist:         params.Whitelist,
			RentPayer:         rentPayer,
			Currency:          params.Currency,
			Cosigner:          params.Cosigner,
			MakerBroker:       params.MakerBroker,
			MaxTakerSellCount: params.MaxTakerSellCount,
			Config:            params.Config,
		}
		data, err := helpers.EncodePool(pool)
		if err != nil {
			return err
		}
		return tx.createAccount(address, rentPayer, shared.PoolSize, data)
	}, zap.Stringer("pool", address), zap.Stringer("owner", params.Owner))
	if err != nil {
		return solanago.PublicKey{}, err
	}
	return address, nil
}

// EditPool applies the set fields of params. The pool type never changes.
func (e *Engine) EditPool(ctx context.Context, params EditPoolParams) error {
	return e.run(ctx, "edit_pool", func(tx *txn) error {
		pool, err := tx.loadOwnedPool(params.Pool, params.Owner)
		if err != nil {
			return err
		}

		if params.Config != nil {
			config := *params.Config
			if config.PoolType != pool.Config.PoolType {
				return shared.ErrWrongPoolType
			}
			if err = helpers.ValidatePoolConfig(config); err != nil {
				return err
			}
			// profit earned before compounding joins the principal
			if config.MmCompoundFees && !pool.Config.MmCompoundFees && pool.Stats.AccumulatedMmProfit > 0 {
				if pool.Amount, err = ammmath.AddU64(pool.Amount, pool.Stats.AccumulatedMmProfit); err != nil {
					return err
				}
				pool.Stats.AccumulatedMmProfit = 0
			}
			pool.Config = config
		}
		if params.Cosigner != nil {
			if err = helpers.ValidateCosigner(pool.Config.PoolType, !params.Cosigner.IsZero()); err != nil {
				return err
			}
			pool.Cosigner = *params.Cosigner
		}
		if params.MakerBroker != nil {
			pool.MakerBroker = *params.MakerBroker
		}
		if params.MaxTakerSellCount != nil {
			if err = helpers.ValidateMaxTakerSellCount(pool, *params.MaxTakerSellCount); err != nil {
				return err
			}
			pool.MaxTakerSellCount = *params.MaxTakerSellCount
		}
		if params.Expiry != nil {
			if pool.Expiry, err = helpers.ResolveExpiry(tx.now, *params.Expiry); err != nil {
				return err
			}
		}
		if params.ResetPriceOffset {
			pool.PriceOffset = 0
		}
		return tx.savePool(params.Pool, pool)
	}, zap.Stringer("pool", params.Pool))
}

// ClosePool closes an empty pool. Rent goes back to the rent payer and any
// remaining principal and profit to the owner.
func (e *Engine) ClosePool(ctx context.Context, owner, poolAddress solanago.PublicKey) error {
	return e.run(ctx, "close_pool", func(tx *txn) error {
		pool, err := tx.loadOwnedPool(poolAddress, owner)
		if err != nil {
			return err
		}
		if err = checkClosable(pool); err != nil {
			return err
		}
		return tx.closeAccount(poolAddress, shared.PoolSize, pool.RentPayer, pool.Owner)
	}, zap.Stringer("pool", poolAddress))
}

// CloseExpiredPool lets anyone close a pool past its expiry, provided
// rentDestination is the pool's rent payer.
func (e *Engine) CloseExpiredPool(ctx context.Context, poolAddress, rentDestination solanago.PublicKey) error {
	return e.run(ctx, "close_expired_pool", func(tx *txn) error {
		pool, err := tx.loadCurrentPool(poolAddress)
		if err != nil {
			return err
		}
		if !pool.IsExpired(tx.now) {
			return shared.ErrPoolNotExpired
		}
		if !pool.RentPayer.Equals(rentDestination) {
			return shared.ErrWrongRentPayer
		}
		if err = checkClosable(pool); err != nil {
			return err
		}
		return tx.closeAccount(poolAddress, shared.PoolSize, pool.RentPayer, pool.Owner)
	}, zap.Stringer("pool", poolAddress))
}

func checkClosable(pool *shared.Pool) error {
	if pool.NftsHeld > 0 {
		return shared.ErrExistingNfts
	}
	if pool.IsOnSharedEscrow() {
		return shared.ErrPoolOnSharedEscrow
	}
	return nil
}

// settlePool saves pool after a trade, or closes it when the auto-close
// policy asks for it and the pool is closable.
func (tx *txn) settlePool(address solanago.PublicKey, pool *shared.Pool, side shared.TakerSide) (bool, error) {
	if checkClosable(pool) == nil && tx.e.autoClose.ShouldClose(pool, side) {
		if err := tx.closeAccount(address, shared.PoolSize, pool.RentPayer, pool.Owner); err != nil {
			return false, err
		}
		tx.autoClosed = append(tx.autoClosed, address)
		return true, nil
	}
	return false, tx.savePool(address, pool)
}

func (tx *txn) requireActive(pool *shared.Pool) error {
	if pool.IsExpired(tx.now) {
		return shared.ErrExpiredPool
	}
	return nil
}

func incU32(v uint32) (uint32, error) {
	if v == math.MaxUint32 {
		return 0, shared.ErrArithmeticError
	}
	return v + 1, nil
}

func decU32(v uint32) (uint32, error) {
	if v == 0 {
		return 0, shared.ErrArithmeticError
	}
	return v - 1, nil
}
