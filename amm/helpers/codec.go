package helpers

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	binary "github.com/gagliardetto/binary"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

var ErrDiscriminatorMismatch = errors.New("account discriminator mismatch")

// Discriminator is the anchor account discriminator of name.
func Discriminator(name string) []byte {
	hash := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], hash[:8])
	return out[:]
}

// EncodeAccount borsh encodes v behind the discriminator of key.
func EncodeAccount(key string, v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(Discriminator(key))
	if err := binary.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

// DecodeAccount checks the discriminator of key and borsh decodes the rest
// of data into v.
func DecodeAccount(key string, data []byte, v any) error {
	if len(data) < shared.DiscriminatorSize || !bytes.Equal(data[:shared.DiscriminatorSize], Discriminator(key)) {
		return fmt.Errorf("decode %s: %w", key, ErrDiscriminatorMismatch)
	}
	if err := binary.NewBorshDecoder(data[shared.DiscriminatorSize:]).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// IsAccount reports whether data carries the discriminator of key.
func IsAccount(key string, data []byte) bool {
	return len(data) >= shared.DiscriminatorSize && bytes.Equal(data[:shared.DiscriminatorSize], Discriminator(key))
}

func EncodePool(pool *shared.Pool) ([]byte, error) {
	return EncodeAccount(shared.AccountKeyPool, pool)
}

func DecodePool(data []byte) (*shared.Pool, error) {
	out := new(shared.Pool)
	if err := DecodeAccount(shared.AccountKeyPool, data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeDepositReceipt(receipt *shared.DepositReceipt) ([]byte, error) {
	return EncodeAccount(shared.AccountKeyNftDepositRcpt, receipt)
}

func DecodeDepositReceipt(data []byte) (*shared.DepositReceipt, error) {
	out := new(shared.DepositReceipt)
	if err := DecodeAccount(shared.AccountKeyNftDepositRcpt, data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeSharedEscrow(escrow *shared.SharedEscrow) ([]byte, error) {
	return EncodeAccount(shared.AccountKeySharedEscrow, escrow)
}

func DecodeSharedEscrow(data []byte) (*shared.SharedEscrow, error) {
	out := new(shared.SharedEscrow)
	if err := DecodeAccount(shared.AccountKeySharedEscrow, data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeSingleListing(listing *shared.SingleListing) ([]byte, error) {
	return EncodeAccount(shared.AccountKeySingleListing, listing)
}

func DecodeSingleListing(data []byte) (*shared.SingleListing, error) {
	out := new(shared.SingleListing)
	if err := DecodeAccount(shared.AccountKeySingleListing, data, out); err != nil {
		return nil, err
	}
	return out, nil
}
