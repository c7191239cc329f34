package math

import (
	"fmt"
	gomath "math"
	"math/big"

	"github.com/krazyTry/nft-amm-go/amm/shared"
)

const (
	// Resolution is the number of fractional bits of the Q64 fixed point.
	Resolution = 64
	// maxFixedBits caps intermediate fixed point values at 192 bits.
	maxFixedBits = 192
)

var (
	one       = new(big.Int).Lsh(big.NewInt(1), Resolution)
	maxUint64 = new(big.Int).SetUint64(gomath.MaxUint64)
)

func arithmetic(op string) error {
	return fmt.Errorf("SafeMath: %s: %w", op, shared.ErrArithmeticError)
}

func Add(a, b *big.Int) *big.Int {
	return new(big.Int).Add(a, b)
}

func Sub(a, b *big.Int) (*big.Int, error) {
	if b.Cmp(a) > 0 {
		return nil, arithmetic("subtraction underflow")
	}
	return new(big.Int).Sub(a, b), nil
}

func Mul(a, b *big.Int) *big.Int {
	return new(big.Int).Mul(a, b)
}

func Div(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, arithmetic("division by zero")
	}
	return new(big.Int).Div(a, b), nil
}

// ToU64 narrows x, failing when it does not fit an unsigned 64-bit integer.
func ToU64(x *big.Int) (uint64, error) {
	if x.Sign() < 0 || x.Cmp(maxUint64) > 0 {
		return 0, arithmetic("u64 overflow")
	}
	return x.Uint64(), nil
}

func AddU64(a, b uint64) (uint64, error) {
	return ToU64(Add(u64(a), u64(b)))
}

func SubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, arithmetic("subtraction underflow")
	}
	return a - b, nil
}

// MulDivU64 computes floor(a*b/denominator) without intermediate overflow.
func MulDivU64(a, b, denominator uint64) (uint64, error) {
	if denominator == 0 {
		return 0, arithmetic("division by zero")
	}
	q, err := Div(Mul(u64(a), u64(b)), u64(denominator))
	if err != nil {
		return 0, err
	}
	return ToU64(q)
}

func AddI32(a, b int32) (int32, error) {
	sum := int64(a) + int64(b)
	if sum > gomath.MaxInt32 || sum < gomath.MinInt32 {
		return 0, arithmetic("i32 overflow")
	}
	return int32(sum), nil
}

// Pow computes base^exponent where base is Q64 fixed point. The result is
// Q64 as well. Values wider than 192 bits fail instead of growing unbounded.
func Pow(base *big.Int, exponent uint32) (*big.Int, error) {
	if exponent == 0 {
		return new(big.Int).Set(one), nil
	}
	if base.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if base.Cmp(one) == 0 {
		return new(big.Int).Set(one), nil
	}

	result := new(big.Int).Set(one)
	currentBase := new(big.Int).Set(base)
	exp := exponent

	for {
		if exp&1 == 1 {
			result = new(big.Int).Rsh(new(big.Int).Mul(result, currentBase), Resolution)
			if result.BitLen() > maxFixedBits {
				return nil, arithmetic("pow overflow")
			}
		}
		exp >>= 1
		if exp == 0 {
			break
		}
		currentBase = new(big.Int).Rsh(new(big.Int).Mul(currentBase, currentBase), Resolution)
		if currentBase.BitLen() > maxFixedBits {
			return nil, arithmetic("pow overflow")
		}
	}
	return result, nil
}

func u64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
