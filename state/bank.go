package state

import (
	"context"
	"fmt"
	gomath "math"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

// Bank moves lamports between accounts staged in a View. Missing accounts
// hold zero lamports and are created on first credit.
type Bank struct {
	view *View
}

func NewBank(view *View) *Bank {
	return &Bank{view: view}
}

func (b *Bank) Balance(ctx context.Context, address solanago.PublicKey) (uint64, error) {
	e, err := b.view.load(ctx, address)
	if err != nil {
		return 0, err
	}
	if e.deleted {
		return 0, nil
	}
	return e.account.Lamports, nil
}

func (b *Bank) Credit(ctx context.Context, to solanago.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	e, err := b.view.load(ctx, to)
	if err != nil {
		return err
	}
	account := &Account{}
	if !e.deleted {
		account = e.account.Clone()
	}
	if account.Lamports > gomath.MaxUint64-amount {
		return fmt.Errorf("credit %d to %s: %w", amount, to, shared.ErrArithmeticError)
	}
	account.Lamports += amount
	b.view.Put(to, account)
	return nil
}

func (b *Bank) Debit(ctx context.Context, from solanago.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	e, err := b.view.load(ctx, from)
	if err != nil {
		return err
	}
	if e.deleted || e.account.Lamports < amount {
		return fmt.Errorf("debit %d from %s: %w", amount, from, shared.ErrInsufficientBalance)
	}
	account := e.account.Clone()
	account.Lamports -= amount
	b.view.Put(from, account)
	return nil
}

// Transfer moves amount lamports from one account to another.
func (b *Bank) Transfer(ctx context.Context, from, to solanago.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from.Equals(to) {
		balance, err := b.Balance(ctx, from)
		if err != nil {
			return err
		}
		if balance < amount {
			return fmt.Errorf("transfer %d from %s: %w", amount, from, shared.ErrInsufficientBalance)
		}
		return nil
	}
	if err := b.Debit(ctx, from, amount); err != nil {
		return err
	}
	return b.Credit(ctx, to, amount)
}
