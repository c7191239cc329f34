package math

import (
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

// CalcFees splits the taker fee charged on amount.
//
// taker_fee        = amount * TAKER_FEE_BPS / 10000
// broker_fees      = taker_fee * BROKER_FEE_PCT / 100
// protocol_fee     = taker_fee - broker_fees
// maker_broker_fee = broker_fees * MAKER_BROKER_PCT / 100
// taker_broker_fee = broker_fees - maker_broker_fee
func CalcFees(amount uint64) (shared.Fees, error) {
	takerFee, err := MulDivU64(amount, shared.TakerFeeBps, shared.HundredPctBps)
	if err != nil {
		return shared.Fees{}, err
	}
	brokerFees, err := MulDivU64(takerFee, shared.BrokerFeePct, shared.HundredPct)
	if err != nil {
		return shared.Fees{}, err
	}
	protocolFee, err := SubU64(takerFee, brokerFees)
	if err != nil {
		return shared.Fees{}, err
	}
	makerBrokerFee, err := MulDivU64(brokerFees, shared.MakerBrokerPct, shared.HundredPct)
	if err != nil {
		return shared.Fees{}, err
	}
	takerBrokerFee, err := SubU64(brokerFees, makerBrokerFee)
	if err != nil {
		return shared.Fees{}, err
	}
	return shared.Fees{
		TakerFee:       takerFee,
		ProtocolFee:    protocolFee,
		MakerBrokerFee: makerBrokerFee,
		TakerBrokerFee: takerBrokerFee,
	}, nil
}

// RouteFees folds the share of an absent broker back into the protocol fee.
func RouteFees(fees shared.Fees, hasMakerBroker, hasTakerBroker bool) (shared.Fees, error) {
	routed := fees
	var err error
	if !hasMakerBroker {
		if routed.ProtocolFee, err = AddU64(routed.ProtocolFee, routed.MakerBrokerFee); err != nil {
			return shared.Fees{}, err
		}
		routed.MakerBrokerFee = 0
	}
	if !hasTakerBroker {
		if routed.ProtocolFee, err = AddU64(routed.ProtocolFee, routed.TakerBrokerFee); err != nil {
			return shared.Fees{}, err
		}
		routed.TakerBrokerFee = 0
	}
	return routed, nil
}

// CalcFeesRebates is the legacy fee flow used by single listings: part of the
// taker fee is rebated to the maker.
func CalcFeesRebates(amount uint64) (shared.LegacyFees, error) {
	takerFee, err := MulDivU64(amount, shared.LegacyTakerFeeBps, shared.HundredPctBps)
	if err != nil {
		return shared.LegacyFees{}, err
	}
	makerRebate, err := MulDivU64(amount, shared.LegacyMakerRebateBps, shared.HundredPctBps)
	if err != nil {
		return shared.LegacyFees{}, err
	}
	remaining, err := SubU64(takerFee, makerRebate)
	if err != nil {
		return shared.LegacyFees{}, err
	}
	brokerFee, err := MulDivU64(remaining, shared.LegacyBrokerPct, shared.HundredPct)
	if err != nil {
		return shared.LegacyFees{}, err
	}
	protocolFee, err := SubU64(remaining, brokerFee)
	if err != nil {
		return shared.LegacyFees{}, err
	}
	return shared.LegacyFees{
		TakerFee:    takerFee,
		ProtocolFee: protocolFee,
		MakerRebate: makerRebate,
		BrokerFee:   brokerFee,
	}, nil
}

// CalcMmFee is the market making fee a trade pool charges on price.
func CalcMmFee(price uint64, mmFeeBps uint16) (uint64, error) {
	if mmFeeBps > shared.MaxMmFeeBps {
		return 0, shared.ErrFeesTooHigh
	}
	return MulDivU64(price, uint64(mmFeeBps), shared.HundredPctBps)
}

// CalcCreatorsFee is the royalty owed on price. Enforced royalties are always
// paid in full; otherwise only optionalRoyaltyPct percent of them (none when
// nil).
func CalcCreatorsFee(price uint64, royalty shared.RoyaltyInfo, optionalRoyaltyPct *uint16) (uint64, error) {
	if royalty.SellerFeeBasisPoints > shared.HundredPctBps {
		return 0, shared.ErrBadMetadata
	}
	fee, err := MulDivU64(price, uint64(royalty.SellerFeeBasisPoints), shared.HundredPctBps)
	if err != nil {
		return 0, err
	}
	if royalty.Enforced {
		return fee, nil
	}
	if optionalRoyaltyPct == nil {
		return 0, nil
	}
	if *optionalRoyaltyPct > shared.HundredPct {
		return 0, shared.ErrBadRoyaltiesPct
	}
	return MulDivU64(fee, uint64(*optionalRoyaltyPct), shared.HundredPct)
}

// SplitCreatorsFee apportions fee by creator share. Shares must add up to
// 100. Rounding dust stays with the payer.
func SplitCreatorsFee(fee uint64, creators []shared.Creator) ([]shared.CreatorPayment, error) {
	if len(creators) == 0 {
		if fee > 0 {
			return nil, shared.ErrBadMetadata
		}
		return nil, nil
	}
	total := 0
	for _, c := range creators {
		total += int(c.Share)
	}
	if total != shared.HundredPct {
		return nil, shared.ErrBadMetadata
	}

	payments := make([]shared.CreatorPayment, 0, len(creators))
	for _, c := range creators {
		amount, err := MulDivU64(fee, uint64(c.Share), shared.HundredPct)
		if err != nil {
			return nil, err
		}
		if amount == 0 {
			continue
		}
		payments = append(payments, shared.CreatorPayment{Address: c.Address, Amount: amount})
	}
	return payments, nil
}

// SumCreatorPayments totals what SplitCreatorsFee distributes.
func SumCreatorPayments(payments []shared.CreatorPayment) (uint64, error) {
	var (
		sum uint64
		err error
	)
	for _, p := range payments {
		if sum, err = AddU64(sum, p.Amount); err != nil {
			return 0, err
		}
	}
	return sum, nil
}
