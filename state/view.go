package state

import (
	"context"
	"errors"
	"fmt"
	"sort"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/krazyTry/nft-amm-go/amm/shared"
	"github.com/krazyTry/nft-amm-go/store"
)

type entry struct {
	account *Account
	deleted bool
	dirty   bool
}

// View is a read-through, write-back overlay over a store.DB. Nothing reaches
// the store until Commit, which writes every change in one batch.
type View struct {
	db      store.DB
	entries map[solanago.PublicKey]*entry
}

func NewView(db store.DB) *View {
	return &View{db: db, entries: make(map[solanago.PublicKey]*entry)}
}

func (v *View) load(ctx context.Context, address solanago.PublicKey) (*entry, error) {
	if e, ok := v.entries[address]; ok {
		return e, nil
	}
	raw, err := v.db.Read(ctx, AccountKey(address))
	if errors.Is(err, store.ErrKeyNotFound) {
		e := &entry{deleted: true}
		v.entries[address] = e
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read account %s: %w", address, err)
	}
	account, err := UnmarshalAccount(raw)
	if err != nil {
		return nil, err
	}
	e := &entry{account: account}
	v.entries[address] = e
	return e, nil
}

// Get returns a copy of the account at address.
func (v *View) Get(ctx context.Context, address solanago.PublicKey) (*Account, error) {
	e, err := v.load(ctx, address)
	if err != nil {
		return nil, err
	}
	if e.deleted {
		return nil, fmt.Errorf("account %s: %w", address, shared.ErrAccountNotFound)
	}
	return e.account.Clone(), nil
}

func (v *View) Exists(ctx context.Context, address solanago.PublicKey) (bool, error) {
	e, err := v.load(ctx, address)
	if err != nil {
		return false, err
	}
	return !e.deleted, nil
}

// Put stages account at address.
func (v *View) Put(address solanago.PublicKey, account *Account) {
	v.entries[address] = &entry{account: account.Clone(), dirty: true}
}

// Remove stages the deletion of address.
func (v *View) Remove(address solanago.PublicKey) {
	v.entries[address] = &entry{deleted: true, dirty: true}
}

// Ops lists the staged changes in address order.
func (v *View) Ops() ([]store.BatchOperation, error) {
	addresses := make([]solanago.PublicKey, 0, len(v.entries))
	for address, e := range v.entries {
		if e.dirty {
			addresses = append(addresses, address)
		}
	}
	sort.Slice(addresses, func(i, j int) bool {
		return string(addresses[i][:]) < string(addresses[j][:])
	})

	ops := make([]store.BatchOperation, 0, len(addresses))
	for _, address := range addresses {
		e := v.entries[address]
		if e.deleted {
			ops = append(ops, store.BatchOperation{Type: store.BatchDelete, Key: AccountKey(address)})
			continue
		}
		raw, err := e.account.Marshal()
		if err != nil {
			return nil, err
		}
		ops = append(ops, store.BatchOperation{Type: store.BatchPut, Key: AccountKey(address), Value: raw})
	}
	return ops, nil
}

// Commit writes the staged changes atomically and resets the view.
func (v *View) Commit(ctx context.Context) error {
	ops, err := v.Ops()
	if err != nil {
		return err
	}
	if len(ops) > 0 {
		if err = v.db.Batch(ctx, ops); err != nil {
			return fmt.Errorf("commit %d account changes: %w", len(ops), err)
		}
	}
	v.Discard()
	return nil
}

// Discard drops every staged change.
func (v *View) Discard() {
	v.entries = make(map[solanago.PublicKey]*entry)
}

// ForEach calls fn with every stored account. Staged changes are not visible.
func ForEach(ctx context.Context, db store.DB, fn func(address solanago.PublicKey, account *Account) error) error {
	start, end := accountRange()
	iter, err := db.Iterator(ctx, start, end)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.Next() {
		address, ok := addressFromKey(iter.Key())
		if !ok {
			continue
		}
		account, err := UnmarshalAccount(iter.Value())
		if err != nil {
			return fmt.Errorf("account %s: %w", address, err)
		}
		if err = fn(address, account); err != nil {
			return err
		}
	}
	return iter.Error()
}
