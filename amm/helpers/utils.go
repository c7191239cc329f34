package helpers

import (
	"bytes"
	"errors"
	"math/big"
	"reflect"

	binary "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

var errLamportsRange = errors.New("amount out of lamport range")

var maxLamports = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)

// LamportsToSol formats lamports as a SOL amount.
func LamportsToSol(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -SolDecimals)
}

// SolToLamports parses a SOL amount such as "1.25", truncating dust below a
// lamport.
func SolToLamports(amount string) (uint64, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, err
	}
	value = value.Shift(SolDecimals).Truncate(0)
	if value.IsNegative() || value.GreaterThan(maxLamports) {
		return 0, errLamportsRange
	}
	return value.BigInt().Uint64(), nil
}

// Filter narrows a program account query to accounts carrying Owner at Offset.
type Filter struct {
	Owner  solanago.PublicKey
	Offset uint64
}

// ComputeStructOffset gets the offset position of a field in a borsh encoded
// account, discriminator included.
func ComputeStructOffset(x any, o string) uint64 {
	t := reflect.TypeOf(x).Elem()
	fields := make([]reflect.StructField, 0)

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == o {
			break
		}
		fields = append(fields, f)
	}

	newValue := reflect.New(reflect.StructOf(fields)).Elem()

	buf := new(bytes.Buffer)
	_ = binary.NewBorshEncoder(buf).Encode(newValue.Interface())

	return uint64(buf.Len()) + 8
}

func CreateProgramAccountFilter(key string, filter *Filter) []rpc.RPCFilter {
	filters := []rpc.RPCFilter{{
		Memcmp: &rpc.RPCFilterMemcmp{
			Offset: 0,
			Bytes:  Discriminator(key),
		},
	}}

	if filter != nil {
		filters = append(filters, rpc.RPCFilter{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: filter.Offset,
				Bytes:  filter.Owner[:],
			},
		})
	}
	return filters
}
