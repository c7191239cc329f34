package amm

import (
	"context"

	solanago "github.com/gagliardetto/solana-go"

	ammmath "github.com/krazyTry/nft-amm-go/amm/math"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

// Quote is the full cost of one trade against a pool.
type Quote struct {
	Side  shared.TakerSide
	Price uint64
	// MmFee is the market making fee of a trade pool, charged on top of the
	// price on a buy and taken out of it on a sell.
	MmFee uint64
	// Fees is the taker fee split after absent brokers were folded into the
	// protocol fee.
	Fees       shared.Fees
	RoyaltyFee uint64
	Royalties  []shared.CreatorPayment
	// Total is what the buyer pays or what the seller receives.
	Total      uint64
	NextOffset int32
}

type QuoteParams struct {
	Pool        solanago.PublicKey
	TakerBroker solanago.PublicKey
	Royalty     RoyaltyParams
}

// PriceQuote prices the next trade on pool without touching any state.
func PriceQuote(pool *shared.Pool, side shared.TakerSide, hasTakerBroker bool, royalty RoyaltyParams) (Quote, error) {
	price, err := ammmath.CurrentPrice(pool.Config, pool.PriceOffset, side)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{Side: side, Price: price}

	if pool.Config.PoolType == shared.PoolTypeTrade {
		bps, _ := pool.Config.MmFeeBps.Get()
		if q.MmFee, err = ammmath.CalcMmFee(price, bps); err != nil {
			return Quote{}, err
		}
	}
	fees, err := ammmath.CalcFees(price)
	if err != nil {
		return Quote{}, err
	}
	if q.Fees, err = ammmath.RouteFees(fees, pool.HasMakerBroker(), hasTakerBroker); err != nil {
		return Quote{}, err
	}
	plan, err := planRoyalties(price, royalty)
	if err != nil {
		return Quote{}, err
	}
	q.RoyaltyFee, q.Royalties = plan.paid, plan.payments

	if q.NextOffset, err = ammmath.NextOffset(pool.PriceOffset, side); err != nil {
		return Quote{}, err
	}
	if q.Total, err = q.total(); err != nil {
		return Quote{}, err
	}
	return q, nil
}

func (q Quote) total() (uint64, error) {
	parts := []uint64{q.MmFee, q.Fees.TakerFee, q.RoyaltyFee}
	total := q.Price
	var err error
	for _, part := range parts {
		if q.Side == shared.TakerSideBuy {
			total, err = ammmath.AddU64(total, part)
		} else {
			total, err = ammmath.SubU64(total, part)
		}
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// QuoteBuy prices buying the next NFT out of a pool.
func (e *Engine) QuoteBuy(ctx context.Context, params QuoteParams) (Quote, error) {
	return e.quote(ctx, params, shared.TakerSideBuy)
}

// QuoteSell prices selling an NFT into a pool.
func (e *Engine) QuoteSell(ctx context.Context, params QuoteParams) (Quote, error) {
	return e.quote(ctx, params, shared.TakerSideSell)
}

func (e *Engine) quote(ctx context.Context, params QuoteParams, side shared.TakerSide) (Quote, error) {
	var q Quote
	err := e.inspect(ctx, func(tx *txn) error {
		pool, err := tx.loadCurrentPool(params.Pool)
		if err != nil {
			return err
		}
		q, err = PriceQuote(pool, side, !params.TakerBroker.IsZero(), params.Royalty)
		return err
	})
	return q, err
}
