// Package state buffers account reads and writes over a store.DB and commits
// them as one batch.
package state

import (
	"bytes"
	"fmt"

	binary "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
)

var accountPrefix = []byte("acct/")

// Account is a lamport balance plus opaque program data.
type Account struct {
	Lamports uint64
	Data     []byte
}

func (a *Account) Clone() *Account {
	return &Account{Lamports: a.Lamports, Data: bytes.Clone(a.Data)}
}

func (a *Account) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.NewBorshEncoder(buf).Encode(a); err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	return buf.Bytes(), nil
}

func UnmarshalAccount(data []byte) (*Account, error) {
	out := new(Account)
	if err := binary.NewBorshDecoder(data).Decode(out); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return out, nil
}

// AccountKey is the store key of address.
func AccountKey(address solanago.PublicKey) []byte {
	key := make([]byte, 0, len(accountPrefix)+solanago.PublicKeyLength)
	key = append(key, accountPrefix...)
	return append(key, address[:]...)
}

func addressFromKey(key []byte) (solanago.PublicKey, bool) {
	if len(key) != len(accountPrefix)+solanago.PublicKeyLength || !bytes.HasPrefix(key, accountPrefix) {
		return solanago.PublicKey{}, false
	}
	return solanago.PublicKeyFromBytes(key[len(accountPrefix):]), true
}

// accountRange bounds every account key.
func accountRange() (start, end []byte) {
	start = bytes.Clone(accountPrefix)
	end = bytes.Clone(accountPrefix)
	end[len(end)-1]++
	return start, end
}
