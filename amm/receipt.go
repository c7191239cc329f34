package amm

import (
	"errors"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

// receiptLedger keeps one deposit receipt per NFT held in pool custody. The
// receipt address is derived from (mint, pool) so a second Open for the same
// pair collides with the first.
type receiptLedger struct {
	tx *txn
}

func (tx *txn) receipts() receiptLedger {
	return receiptLedger{tx: tx}
}

func (l receiptLedger) address(mint, pool solanago.PublicKey) (solanago.PublicKey, uint8, error) {
	return helpers.DeriveNftReceiptAddress(l.tx.e.programID, mint, pool)
}

// Open records that pool escrows mint. payer funds the receipt rent.
func (l receiptLedger) Open(payer, mint, pool solanago.PublicKey) (solanago.PublicKey, error) {
	address, bump, err := l.address(mint, pool)
	if err != nil {
		return solanago.PublicKey{}, err
	}
	data, err := helpers.EncodeDepositReceipt(&shared.DepositReceipt{Bump: bump, Mint: mint, Pool: pool})
	if err != nil {
		return solanago.PublicKey{}, err
	}
	if err = l.tx.createAccount(address, payer, shared.DepositReceiptSize, data); err != nil {
		return solanago.PublicKey{}, err
	}
	return address, nil
}

// Close deletes a receipt and refunds its rent to recipient.
func (l receiptLedger) Close(address, recipient solanago.PublicKey) error {
	return l.tx.closeAccount(address, shared.DepositReceiptSize, recipient, recipient)
}

// Load reads the receipt at address.
func (l receiptLedger) Load(address solanago.PublicKey) (*shared.DepositReceipt, error) {
	data, err := l.tx.data(address)
	if err != nil {
		return nil, err
	}
	return helpers.DecodeDepositReceipt(data)
}

// Lookup finds the receipt of (mint, pool) if one is open.
func (l receiptLedger) Lookup(mint, pool solanago.PublicKey) (solanago.PublicKey, *shared.DepositReceipt, bool, error) {
	address, _, err := l.address(mint, pool)
	if err != nil {
		return solanago.PublicKey{}, nil, false, err
	}
	receipt, err := l.Load(address)
	if errors.Is(err, shared.ErrAccountNotFound) {
		return address, nil, false, nil
	}
	if err != nil {
		return solanago.PublicKey{}, nil, false, err
	}
	return address, receipt, true, nil
}

// Resolve returns the receipt proving pool holds mint. An explicit receipt
// address must belong to the same mint and pool.
func (l receiptLedger) Resolve(explicit *solanago.PublicKey, mint, pool solanago.PublicKey) (solanago.PublicKey, error) {
	if explicit == nil {
		address, _, ok, err := l.Lookup(mint, pool)
		if err != nil {
			return solanago.PublicKey{}, err
		}
		if !ok {
			return solanago.PublicKey{}, fmt.Errorf("no receipt for %s: %w", mint, shared.ErrWrongMint)
		}
		return address, nil
	}

	receipt, err := l.Load(*explicit)
	if errors.Is(err, shared.ErrAccountNotFound) || errors.Is(err, helpers.ErrDiscriminatorMismatch) {
		return solanago.PublicKey{}, fmt.Errorf("receipt %s: %w", explicit, shared.ErrWrongMint)
	}
	if err != nil {
		return solanago.PublicKey{}, err
	}
	if !receipt.Mint.Equals(mint) {
		return solanago.PublicKey{}, shared.ErrWrongMint
	}
	if !receipt.Pool.Equals(pool) {
		return solanago.PublicKey{}, shared.ErrWrongPool
	}
	return *explicit, nil
}
