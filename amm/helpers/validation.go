package helpers

import (
	solanago "github.com/gagliardetto/solana-go"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

// ValidatePoolConfig checks the curve and fee invariants shared by pool
// creation and edits.
func ValidatePoolConfig(config shared.PoolConfig) error {
	if config.PoolType > shared.PoolTypeTrade {
		return shared.ErrInvalidPoolConfig
	}
	if config.CurveType > shared.CurveTypeExponential {
		return shared.ErrInvalidPoolConfig
	}
	if config.StartingPrice < shared.MinPrice {
		return shared.ErrStartingPriceTooSmall
	}
	if config.CurveType == shared.CurveTypeExponential && config.Delta > shared.MaxDeltaBps {
		return shared.ErrDeltaTooLarge
	}

	fee, hasFee := config.MmFeeBps.Get()
	switch config.PoolType {
	case shared.PoolTypeTrade:
		if !hasFee {
			return shared.ErrMissingFees
		}
		if fee > shared.MaxMmFeeBps {
			return shared.ErrFeesTooHigh
		}
	default:
		if hasFee {
			return shared.ErrFeesNotAllowed
		}
	}
	return nil
}

// ValidateCosigner allows a cosigner on token pools only.
func ValidateCosigner(poolType shared.PoolType, cosigner bool) error {
	if cosigner && poolType != shared.PoolTypeToken {
		return shared.ErrWrongPoolType
	}
	return nil
}

// ResolveExpiry returns the expiry to record for a pool. Zero means the
// longest allowed lifetime.
func ResolveExpiry(now, expiry int64) (int64, error) {
	maxExpiry := now + shared.MaxExpirySec
	switch {
	case expiry == 0:
		return maxExpiry, nil
	case expiry > maxExpiry:
		return 0, shared.ErrExpiryTooLarge
	case expiry < now:
		return 0, shared.ErrExpiredPool
	}
	return expiry, nil
}

// ValidateMaxTakerSellCount rejects a cap the pool has already exceeded.
func ValidateMaxTakerSellCount(pool *shared.Pool, maxTakerSellCount uint32) error {
	if maxTakerSellCount == 0 {
		return nil
	}
	if int64(maxTakerSellCount) < pool.NetTakerSells() {
		return shared.ErrMaxTakerSellCountTooSmall
	}
	return nil
}

// ValidateCurrency rejects anything but native currency.
func ValidateCurrency(currency solanago.PublicKey) error {
	if !currency.IsZero() {
		return shared.ErrSplCurrencyNotSupported
	}
	return nil
}
