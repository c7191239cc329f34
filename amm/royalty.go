package amm

import (
	solanago "github.com/gagliardetto/solana-go"

	ammmath "github.com/krazyTry/nft-amm-go/amm/math"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

// royaltyPlan is what a trade pays creators. paid can fall short of the
// computed fee by the flooring dust of the split.
type royaltyPlan struct {
	payments []shared.CreatorPayment
	paid     uint64
}

func planRoyalties(price uint64, params RoyaltyParams) (royaltyPlan, error) {
	fee, err := ammmath.CalcCreatorsFee(price, params.Info, params.OptionalRoyaltyPct)
	if err != nil || fee == 0 {
		return royaltyPlan{}, err
	}
	payments, err := ammmath.SplitCreatorsFee(fee, params.Info.Creators)
	if err != nil {
		return royaltyPlan{}, err
	}
	paid, err := ammmath.SumCreatorPayments(payments)
	if err != nil {
		return royaltyPlan{}, err
	}
	return royaltyPlan{payments: payments, paid: paid}, nil
}

// matchCreators checks the caller supplied one account per metadata creator,
// in metadata order. Nothing is checked when no royalty is due.
func matchCreators(params RoyaltyParams, fee uint64) error {
	if fee == 0 {
		return nil
	}
	if len(params.Creators) != len(params.Info.Creators) {
		return shared.ErrCreatorMismatch
	}
	for i, c := range params.Info.Creators {
		if !c.Address.Equals(params.Creators[i]) {
			return shared.ErrCreatorMismatch
		}
	}
	return nil
}

// payRoyalties pays every creator from payer.
func (tx *txn) payRoyalties(payer solanago.PublicKey, payments []shared.CreatorPayment) error {
	for _, p := range payments {
		if err := tx.pay(payer, p.Address, p.Amount, feeKindRoyalty); err != nil {
			return err
		}
	}
	return nil
}
