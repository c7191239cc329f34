package amm

import (
	"context"

	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	ammmath "github.com/krazyTry/nft-amm-go/amm/math"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

func (e *Engine) listingAddress(mint solanago.PublicKey) (solanago.PublicKey, uint8, error) {
	return helpers.DeriveSingleListingAddress(e.programID, mint)
}

// List escrows an NFT for sale at a fixed price.
func (e *Engine) List(ctx context.Context, params ListParams) (solanago.PublicKey, error) {
	address, bump, err := e.listingAddress(params.Mint)
	if err != nil {
		return solanago.PublicKey{}, err
	}
	err = e.run(ctx, "list", func(tx *txn) error {
		if params.Price < shared.MinPrice {
			return shared.ErrStartingPriceTooSmall
		}
		data, err := helpers.EncodeSingleListing(&shared.SingleListing{
			Version:     shared.CurrentListingVersion,
			Bump:        bump,
			Owner:       params.Owner,
			NftMint:     params.Mint,
			Price:       params.Price,
			MakerBroker: params.MakerBroker,
			CreatedAt:   tx.now,
		})
		if err != nil {
			return err
		}
		if err = tx.createAccount(address, params.Owner, shared.SingleListingSize, data); err != nil {
			return err
		}
		tx.queueTransfer(AssetTransferRequest{
			Mint:      params.Mint,
			From:      params.Owner,
			To:        address,
			Authority: params.Owner,
		})
		return nil
	}, zap.Stringer("listing", address), zap.Stringer("mint", params.Mint))
	if err != nil {
		return solanago.PublicKey{}, err
	}
	return address, nil
}

func (tx *txn) loadOwnedListing(mint, owner solanago.PublicKey) (solanago.PublicKey, *shared.SingleListing, error) {
	address, _, err := tx.e.listingAddress(mint)
	if err != nil {
		return solanago.PublicKey{}, nil, err
	}
	listing, err := tx.loadListing(address)
	if err != nil {
		return solanago.PublicKey{}, nil, err
	}
	if !owner.IsZero() && !listing.Owner.Equals(owner) {
		return solanago.PublicKey{}, nil, shared.ErrWrongOwner
	}
	return address, listing, nil
}

// EditListing changes the asking price.
func (e *Engine) EditListing(ctx context.Context, owner, mint solanago.PublicKey, price uint64) error {
	return e.run(ctx, "edit_listing", func(tx *txn) error {
		if price < shared.MinPrice {
			return shared.ErrStartingPriceTooSmall
		}
		address, listing, err := tx.loadOwnedListing(mint, owner)
		if err != nil {
			return err
		}
		listing.Price = price
		return tx.saveListing(address, listing)
	}, zap.Stringer("mint", mint), zap.Uint64("price", price))
}

// Delist returns the NFT and the listing rent to the owner.
func (e *Engine) Delist(ctx context.Context, owner, mint solanago.PublicKey) error {
	return e.run(ctx, "delist", func(tx *txn) error {
		if owner.IsZero() {
			return shared.ErrWrongOwner
		}
		address, _, err := tx.loadOwnedListing(mint, owner)
		if err != nil {
			return err
		}
		if err = tx.closeAccount(address, shared.SingleListingSize, owner, owner); err != nil {
			return err
		}
		tx.queueTransfer(AssetTransferRequest{
			Mint:      mint,
			From:      address,
			To:        owner,
			Authority: address,
		})
		return nil
	}, zap.Stringer("mint", mint))
}

// BuyListing fills a single listing. Listings use the legacy fee flow: the
// buyer pays the taker fee on top of the price and part of it is rebated to
// the seller.
func (e *Engine) BuyListing(ctx context.Context, params BuyListingParams) (shared.LegacyFees, error) {
	var fees shared.LegacyFees
	err := e.run(ctx, "buy_listing", func(tx *txn) error {
		address, listing, err := tx.loadOwnedListing(params.Mint, solanago.PublicKey{})
		if err != nil {
			return err
		}
		if listing.Price > params.MaxPrice {
			return shared.ErrPriceMismatch
		}
		if fees, err = ammmath.CalcFeesRebates(listing.Price); err != nil {
			return err
		}
		plan, err := planRoyalties(listing.Price, params.Royalty)
		if err != nil {
			return err
		}
		if err = matchCreators(params.Royalty, plan.paid); err != nil {
			return err
		}

		broker, brokerKind := params.TakerBroker, feeKindTakerBroker
		if broker.IsZero() {
			broker, brokerKind = listing.MakerBroker, feeKindMakerBroker
		}
		if broker.IsZero() {
			broker, brokerKind = tx.e.feeVault, feeKindProtocol
		}

		if err = tx.pay(params.Buyer, listing.Owner, listing.Price, ""); err != nil {
			return err
		}
		if err = tx.pay(params.Buyer, listing.Owner, fees.MakerRebate, feeKindMakerRebate); err != nil {
			return err
		}
		if err = tx.pay(params.Buyer, tx.e.feeVault, fees.ProtocolFee, feeKindProtocol); err != nil {
			return err
		}
		if err = tx.pay(params.Buyer, broker, fees.BrokerFee, brokerKind); err != nil {
			return err
		}
		if err = tx.payRoyalties(params.Buyer, plan.payments); err != nil {
			return err
		}
		if err = tx.closeAccount(address, shared.SingleListingSize, listing.Owner, listing.Owner); err != nil {
			return err
		}

		tx.queueTransfer(AssetTransferRequest{
			Mint:        params.Mint,
			From:        address,
			To:          params.Buyer,
			Authority:   address,
			Royalty:     params.Royalty.Info,
			CreatorsFee: plan.paid,
		})
		tx.trades = append(tx.trades, tradeRecord{side: shared.TakerSideBuy, price: listing.Price})
		return nil
	}, zap.Stringer("mint", params.Mint), zap.Stringer("buyer", params.Buyer))
	if err != nil {
		return shared.LegacyFees{}, err
	}
	return fees, nil
}
