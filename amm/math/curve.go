package math

import (
	"math/big"

	"github.com/krazyTry/nft-amm-go/amm/shared"
)

// PriceForOffset returns the curve price after offset net buys (negative for
// net sells).
//
// Linear:      starting_price + delta * offset
// Exponential: starting_price * ((10000 + delta) / 10000) ^ offset
func PriceForOffset(config shared.PoolConfig, offset int32) (uint64, error) {
	var (
		price uint64
		err   error
	)
	up := offset > 0
	steps := absI32(offset)

	switch config.CurveType {
	case shared.CurveTypeLinear:
		price, err = linearPrice(config.StartingPrice, config.Delta, steps, up)
	case shared.CurveTypeExponential:
		price, err = exponentialPrice(config.StartingPrice, config.Delta, steps, up)
	default:
		return 0, shared.ErrInvalidPoolConfig
	}
	if err != nil {
		return 0, err
	}
	if price < shared.MinPrice {
		return 0, arithmetic("price below floor")
	}
	return price, nil
}

func linearPrice(startingPrice, delta uint64, steps uint32, up bool) (uint64, error) {
	shift := Mul(u64(delta), new(big.Int).SetUint64(uint64(steps)))
	var (
		price *big.Int
		err   error
	)
	if up {
		price = Add(u64(startingPrice), shift)
	} else {
		if price, err = Sub(u64(startingPrice), shift); err != nil {
			return 0, err
		}
	}
	return ToU64(price)
}

func exponentialPrice(startingPrice, delta uint64, steps uint32, up bool) (uint64, error) {
	if delta > shared.MaxDeltaBps {
		return 0, shared.ErrDeltaTooLarge
	}
	// factor = (10000 + delta) / 10000 in Q64
	numerator := new(big.Int).Lsh(u64(shared.HundredPctBps+delta), Resolution)
	factor, err := Div(numerator, big.NewInt(shared.HundredPctBps))
	if err != nil {
		return 0, err
	}
	scale, err := Pow(factor, steps)
	if err != nil {
		return 0, err
	}

	var price *big.Int
	if up {
		// round half up: (starting * scale + ONE/2) >> 64
		prod := Mul(u64(startingPrice), scale)
		prod.Add(prod, new(big.Int).Rsh(one, 1))
		price = prod.Rsh(prod, Resolution)
	} else {
		// round half up: (2 * starting * ONE + scale) / (2 * scale)
		num := Mul(u64(startingPrice), new(big.Int).Lsh(one, 1))
		num.Add(num, scale)
		if price, err = Div(num, new(big.Int).Lsh(scale, 1)); err != nil {
			return 0, err
		}
	}
	return ToU64(price)
}

// CurrentPrice quotes the price a taker trades at. Trade pools quote their
// bid SpreadTicks below the ask so a matched buy and sell cannot drain them.
func CurrentPrice(config shared.PoolConfig, offset int32, side shared.TakerSide) (uint64, error) {
	switch {
	case config.PoolType == shared.PoolTypeTrade && side == shared.TakerSideBuy,
		config.PoolType == shared.PoolTypeNFT && side == shared.TakerSideBuy,
		config.PoolType == shared.PoolTypeToken && side == shared.TakerSideSell:
		return PriceForOffset(config, offset)
	case config.PoolType == shared.PoolTypeTrade && side == shared.TakerSideSell:
		shifted, err := AddI32(offset, -shared.SpreadTicks)
		if err != nil {
			return 0, err
		}
		return PriceForOffset(config, shifted)
	}
	return 0, shared.ErrWrongPoolType
}

// NextOffset moves the offset one tick in the direction of the trade.
func NextOffset(offset int32, side shared.TakerSide) (int32, error) {
	if side == shared.TakerSideBuy {
		return AddI32(offset, 1)
	}
	return AddI32(offset, -1)
}

func absI32(v int32) uint32 {
	if v < 0 {
		return uint32(-int64(v))
	}
	return uint32(v)
}
