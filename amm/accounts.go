package amm

import (
	"fmt"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	"github.com/krazyTry/nft-amm-go/amm/shared"
	"github.com/krazyTry/nft-amm-go/state"
)

func (tx *txn) rentFor(size int) uint64 {
	return tx.e.rent.MinimumBalance(uint64(size))
}

func (tx *txn) data(address solanago.PublicKey) ([]byte, error) {
	account, err := tx.view.Get(tx.ctx, address)
	if err != nil {
		return nil, err
	}
	return account.Data, nil
}

// saveData replaces the data of an existing account, keeping its lamports.
func (tx *txn) saveData(address solanago.PublicKey, data []byte) error {
	account, err := tx.view.Get(tx.ctx, address)
	if err != nil {
		return err
	}
	account.Data = data
	tx.view.Put(address, account)
	return nil
}

// createAccount funds a new program account with its rent from payer.
func (tx *txn) createAccount(address, payer solanago.PublicKey, size int, data []byte) error {
	exists, err := tx.view.Exists(tx.ctx, address)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("account %s: %w", address, shared.ErrAccountExists)
	}
	if err = tx.bank.Transfer(tx.ctx, payer, address, tx.rentFor(size)); err != nil {
		return err
	}
	tx.view.Put(address, &state.Account{Lamports: tx.rentFor(size), Data: data})
	return nil
}

// closeAccount refunds the rent of a program account to rentDestination and
// every lamport above it to restDestination, then deletes it.
func (tx *txn) closeAccount(address solanago.PublicKey, size int, rentDestination, restDestination solanago.PublicKey) error {
	lamports, err := tx.bank.Balance(tx.ctx, address)
	if err != nil {
		return err
	}
	rent := min(lamports, tx.rentFor(size))
	if err = tx.bank.Transfer(tx.ctx, address, rentDestination, rent); err != nil {
		return err
	}
	if err = tx.bank.Transfer(tx.ctx, address, restDestination, lamports-rent); err != nil {
		return err
	}
	tx.view.Remove(address)
	return nil
}

// spare is what an account holds above its rent.
func (tx *txn) spare(address solanago.PublicKey, size int) (uint64, error) {
	lamports, err := tx.bank.Balance(tx.ctx, address)
	if err != nil {
		return 0, err
	}
	rent := tx.rentFor(size)
	if lamports < rent {
		return 0, nil
	}
	return lamports - rent, nil
}

func (tx *txn) loadPool(address solanago.PublicKey) (*shared.Pool, error) {
	data, err := tx.data(address)
	if err != nil {
		return nil, err
	}
	pool, err := helpers.DecodePool(data)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", address, err)
	}
	return pool, nil
}

// loadCurrentPool loads a pool and refuses stale layouts.
func (tx *txn) loadCurrentPool(address solanago.PublicKey) (*shared.Pool, error) {
	pool, err := tx.loadPool(address)
	if err != nil {
		return nil, err
	}
	if pool.Version != shared.CurrentPoolVersion {
		return nil, shared.ErrWrongPoolVersion
	}
	if !pool.IsNativeCurrency() {
		return nil, shared.ErrUnsupportedCurrency
	}
	return pool, nil
}

// loadOwnedPool additionally checks that owner controls the pool.
func (tx *txn) loadOwnedPool(address, owner solanago.PublicKey) (*shared.Pool, error) {
	pool, err := tx.loadCurrentPool(address)
	if err != nil {
		return nil, err
	}
	if !pool.Owner.Equals(owner) {
		return nil, shared.ErrWrongOwner
	}
	return pool, nil
}

func (tx *txn) savePool(address solanago.PublicKey, pool *shared.Pool) error {
	pool.UpdatedAt = tx.now
	data, err := helpers.EncodePool(pool)
	if err != nil {
		return err
	}
	return tx.saveData(address, data)
}

func (tx *txn) loadSharedEscrow(address solanago.PublicKey) (*shared.SharedEscrow, error) {
	data, err := tx.data(address)
	if err != nil {
		return nil, err
	}
	escrow, err := helpers.DecodeSharedEscrow(data)
	if err != nil {
		return nil, fmt.Errorf("shared escrow %s: %w", address, err)
	}
	if escrow.Version != shared.CurrentSharedEscrowVersion {
		return nil, shared.ErrWrongPoolVersion
	}
	return escrow, nil
}

func (tx *txn) saveSharedEscrow(address solanago.PublicKey, escrow *shared.SharedEscrow) error {
	data, err := helpers.EncodeSharedEscrow(escrow)
	if err != nil {
		return err
	}
	return tx.saveData(address, data)
}

func (tx *txn) loadListing(address solanago.PublicKey) (*shared.SingleListing, error) {
	data, err := tx.data(address)
	if err != nil {
		return nil, err
	}
	listing, err := helpers.DecodeSingleListing(data)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", address, err)
	}
	if listing.Version != shared.CurrentListingVersion {
		return nil, shared.ErrWrongPoolVersion
	}
	return listing, nil
}

func (tx *txn) saveListing(address solanago.PublicKey, listing *shared.SingleListing) error {
	data, err := helpers.EncodeSingleListing(listing)
	if err != nil {
		return err
	}
	return tx.saveData(address, data)
}
