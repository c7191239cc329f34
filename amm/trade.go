package amm

import (
	"context"

	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	ammmath "github.com/krazyTry/nft-amm-go/amm/math"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

// loadPoolEscrow returns the shared escrow a trade must settle against. The
// caller names the escrow it expects, the zero key when the pool is funded
// directly.
func (tx *txn) loadPoolEscrow(pool *shared.Pool, named solanago.PublicKey) (*shared.SharedEscrow, error) {
	if !pool.SharedEscrow.Equals(named) {
		return nil, shared.ErrBadSharedEscrow
	}
	if !pool.IsOnSharedEscrow() {
		return nil, nil
	}
	return tx.loadSharedEscrow(pool.SharedEscrow)
}

// payTakerFees routes the split taker fee from payer.
func (tx *txn) payTakerFees(payer solanago.PublicKey, pool *shared.Pool, takerBroker solanago.PublicKey, fees shared.Fees) error {
	if err := tx.pay(payer, tx.e.feeVault, fees.ProtocolFee, feeKindProtocol); err != nil {
		return err
	}
	if err := tx.pay(payer, pool.MakerBroker, fees.MakerBrokerFee, feeKindMakerBroker); err != nil {
		return err
	}
	return tx.pay(payer, takerBroker, fees.TakerBrokerFee, feeKindTakerBroker)
}

// BuyNft sells the taker an NFT out of an NFT or Trade pool.
func (e *Engine) BuyNft(ctx context.Context, params TakerBuyParams) (Quote, error) {
	var q Quote
	err := e.run(ctx, "buy_nft", func(tx *txn) error {
		pool, err := tx.loadCurrentPool(params.Pool)
		if err != nil {
			return err
		}
		if err = tx.requireActive(pool); err != nil {
			return err
		}
		if !holdsNfts(pool) {
			return shared.ErrWrongPoolType
		}
		escrow, err := tx.loadPoolEscrow(pool, params.SharedEscrow)
		if err != nil {
			return err
		}
		receipt, err := tx.receipts().Resolve(params.Receipt, params.Mint, params.Pool)
		if err != nil {
			return err
		}

		if q, err = PriceQuote(pool, shared.TakerSideBuy, !params.TakerBroker.IsZero(), params.Royalty); err != nil {
			return err
		}
		cost, err := ammmath.AddU64(q.Price, q.MmFee)
		if err != nil {
			return err
		}
		if cost > params.MaxAmount {
			return shared.ErrPriceMismatch
		}
		if err = matchCreators(params.Royalty, q.RoyaltyFee); err != nil {
			return err
		}

		if err = tx.payTakerFees(params.Buyer, pool, params.TakerBroker, q.Fees); err != nil {
			return err
		}
		if err = tx.payRoyalties(params.Buyer, q.Royalties); err != nil {
			return err
		}
		if err = tx.collectBuyProceeds(params.Buyer, params.Pool, pool, escrow, q); err != nil {
			return err
		}

		if err = tx.receipts().Close(receipt, pool.Owner); err != nil {
			return err
		}
		if pool.NftsHeld, err = decU32(pool.NftsHeld); err != nil {
			return err
		}
		if pool.Stats.TakerBuyCount, err = incU32(pool.Stats.TakerBuyCount); err != nil {
			return err
		}
		pool.PriceOffset = q.NextOffset

		tx.queueTransfer(AssetTransferRequest{
			Mint:        params.Mint,
			From:        params.Pool,
			To:          params.Buyer,
			Authority:   params.Pool,
			Royalty:     params.Royalty.Info,
			CreatorsFee: q.RoyaltyFee,
		})
		tx.trades = append(tx.trades, tradeRecord{side: shared.TakerSideBuy, price: q.Price})

		if escrow != nil {
			if err = tx.saveSharedEscrow(pool.SharedEscrow, escrow); err != nil {
				return err
			}
		}
		_, err = tx.settlePool(params.Pool, pool, shared.TakerSideBuy)
		return err
	}, zap.Stringer("pool", params.Pool), zap.Stringer("mint", params.Mint), zap.Stringer("buyer", params.Buyer))
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}

// collectBuyProceeds pays the price and market making fee of a buy. An NFT
// pool forwards the price to its owner; a trade pool keeps it as principal,
// in the shared escrow when attached to one.
func (tx *txn) collectBuyProceeds(buyer, poolAddress solanago.PublicKey, pool *shared.Pool, escrow *shared.SharedEscrow, q Quote) error {
	if pool.Config.PoolType == shared.PoolTypeNFT {
		return tx.pay(buyer, pool.Owner, q.Price, "")
	}

	principal := q.Price
	var err error
	if pool.Config.MmCompoundFees {
		if principal, err = ammmath.AddU64(principal, q.MmFee); err != nil {
			return err
		}
		tx.recordFee(feeKindMm, q.MmFee)
	}

	if escrow != nil {
		if escrow.Balance, err = ammmath.AddU64(escrow.Balance, principal); err != nil {
			return err
		}
		if err = tx.pay(buyer, pool.SharedEscrow, principal, ""); err != nil {
			return err
		}
		if !pool.Config.MmCompoundFees {
			return tx.pay(buyer, pool.Owner, q.MmFee, feeKindMm)
		}
		return nil
	}

	if pool.Amount, err = ammmath.AddU64(pool.Amount, principal); err != nil {
		return err
	}
	if err = tx.pay(buyer, poolAddress, principal, ""); err != nil {
		return err
	}
	if !pool.Config.MmCompoundFees {
		if pool.Stats.AccumulatedMmProfit, err = ammmath.AddU64(pool.Stats.AccumulatedMmProfit, q.MmFee); err != nil {
			return err
		}
		return tx.pay(buyer, poolAddress, q.MmFee, feeKindMm)
	}
	return nil
}

// SellNft buys the taker's NFT into a Token or Trade pool.
func (e *Engine) SellNft(ctx context.Context, params TakerSellParams) (Quote, error) {
	var q Quote
	err := e.run(ctx, "sell_nft", func(tx *txn) error {
		pool, err := tx.loadCurrentPool(params.Pool)
		if err != nil {
			return err
		}
		if err = tx.requireActive(pool); err != nil {
			return err
		}
		if !holdsCurrency(pool) {
			return shared.ErrWrongPoolType
		}
		if pool.HasCosigner() && !pool.Cosigner.Equals(params.Cosigner) {
			return shared.ErrBadCosigner
		}
		if err = tx.verifyWhitelist(pool, params.Whitelist, params.Mint, params.Proof); err != nil {
			return err
		}
		escrow, err := tx.loadPoolEscrow(pool, params.SharedEscrow)
		if err != nil {
			return err
		}
		// only escrow-backed pools are capped
		if escrow != nil && pool.MaxTakerSellCount > 0 && pool.NetTakerSells() >= int64(pool.MaxTakerSellCount) {
			return shared.ErrMaxTakerSellCountExceeded
		}

		if q, err = PriceQuote(pool, shared.TakerSideSell, !params.TakerBroker.IsZero(), params.Royalty); err != nil {
			return err
		}
		proceeds, err := ammmath.SubU64(q.Price, q.MmFee)
		if err != nil {
			return err
		}
		if proceeds < params.MinPrice {
			return shared.ErrPriceMismatch
		}
		if err = matchCreators(params.Royalty, q.RoyaltyFee); err != nil {
			return err
		}

		source, err := tx.fundSell(params.Pool, pool, escrow, q)
		if err != nil {
			return err
		}
		if err = tx.pay(source, params.Seller, q.Total, ""); err != nil {
			return err
		}
		if err = tx.payTakerFees(source, pool, params.TakerBroker, q.Fees); err != nil {
			return err
		}
		if err = tx.payRoyalties(source, q.Royalties); err != nil {
			return err
		}

		custody := pool.Owner
		if pool.Config.PoolType == shared.PoolTypeTrade {
			custody = params.Pool
			if _, err = tx.receipts().Open(params.Seller, params.Mint, params.Pool); err != nil {
				return err
			}
			if pool.NftsHeld, err = incU32(pool.NftsHeld); err != nil {
				return err
			}
		}
		if pool.Stats.TakerSellCount, err = incU32(pool.Stats.TakerSellCount); err != nil {
			return err
		}
		pool.PriceOffset = q.NextOffset

		tx.queueTransfer(AssetTransferRequest{
			Mint:        params.Mint,
			From:        params.Seller,
			To:          custody,
			Authority:   params.Seller,
			Royalty:     params.Royalty.Info,
			CreatorsFee: q.RoyaltyFee,
		})
		tx.trades = append(tx.trades, tradeRecord{side: shared.TakerSideSell, price: q.Price})

		if escrow != nil {
			if err = tx.saveSharedEscrow(pool.SharedEscrow, escrow); err != nil {
				return err
			}
		}
		_, err = tx.settlePool(params.Pool, pool, shared.TakerSideSell)
		return err
	}, zap.Stringer("pool", params.Pool), zap.Stringer("mint", params.Mint), zap.Stringer("seller", params.Seller))
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}

// fundSell takes the price of a sell out of the pool's principal, or out of
// its shared escrow, and books the market making fee. It returns the account
// the seller and fees are then paid from.
func (tx *txn) fundSell(poolAddress solanago.PublicKey, pool *shared.Pool, escrow *shared.SharedEscrow, q Quote) (solanago.PublicKey, error) {
	// a compounding pool keeps the fee as principal, so only the net leaves it
	debit := q.Price
	if pool.Config.MmCompoundFees {
		debit = q.Price - q.MmFee
		tx.recordFee(feeKindMm, q.MmFee)
	}

	if escrow != nil {
		if debit > escrow.Balance {
			return solanago.PublicKey{}, shared.ErrInsufficientBalance
		}
		escrow.Balance -= debit
		if !pool.Config.MmCompoundFees {
			if err := tx.pay(pool.SharedEscrow, pool.Owner, q.MmFee, feeKindMm); err != nil {
				return solanago.PublicKey{}, err
			}
		}
		return pool.SharedEscrow, nil
	}

	if debit > pool.Amount {
		return solanago.PublicKey{}, shared.ErrInsufficientBalance
	}
	pool.Amount -= debit
	if !pool.Config.MmCompoundFees {
		var err error
		if pool.Stats.AccumulatedMmProfit, err = ammmath.AddU64(pool.Stats.AccumulatedMmProfit, q.MmFee); err != nil {
			return solanago.PublicKey{}, err
		}
		tx.recordFee(feeKindMm, q.MmFee)
	}
	return poolAddress, nil
}
