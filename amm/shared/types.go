package shared

import (
	solanago "github.com/gagliardetto/solana-go"
)

type PoolType uint8

const (
	// PoolTypeToken pools hold currency and bid for NFTs (takers sell into them).
	PoolTypeToken PoolType = 0
	// PoolTypeNFT pools hold NFTs and list them (takers buy from them).
	PoolTypeNFT PoolType = 1
	// PoolTypeTrade pools do both and earn a market making fee.
	PoolTypeTrade PoolType = 2
)

func (t PoolType) String() string {
	switch t {
	case PoolTypeToken:
		return "token"
	case PoolTypeNFT:
		return "nft"
	case PoolTypeTrade:
		return "trade"
	}
	return "unknown"
}

type CurveType uint8

const (
	CurveTypeLinear      CurveType = 0
	CurveTypeExponential CurveType = 1
)

func (t CurveType) String() string {
	switch t {
	case CurveTypeLinear:
		return "linear"
	case CurveTypeExponential:
		return "exponential"
	}
	return "unknown"
}

// TakerSide is the direction of a trade from the taker's point of view.
type TakerSide uint8

const (
	TakerSideBuy  TakerSide = 0
	TakerSideSell TakerSide = 1
)

func (s TakerSide) String() string {
	if s == TakerSideBuy {
		return "buy"
	}
	return "sell"
}

// NullableU16 is a fixed-width optional u16.
type NullableU16 struct {
	Present bool
	Value   uint16
}

func SomeU16(v uint16) NullableU16 {
	return NullableU16{Present: true, Value: v}
}

func (n NullableU16) Get() (uint16, bool) {
	return n.Value, n.Present
}

// PoolConfig is the curve and fee policy of a pool.
type PoolConfig struct {
	PoolType       PoolType
	CurveType      CurveType
	StartingPrice  uint64
	Delta          uint64
	MmCompoundFees bool
	MmFeeBps       NullableU16
}

type PoolStats struct {
	TakerSellCount      uint32
	TakerBuyCount       uint32
	AccumulatedMmProfit uint64
}

// Pool is the AMM liquidity position. Zero public keys stand for "none".
type Pool struct {
	Version           uint8
	Bump              [1]uint8
	PoolId            [32]uint8
	CreatedAt         int64
	UpdatedAt         int64
	Expiry            int64
	Owner             solanago.PublicKey
	Whitelist         solanago.PublicKey
	RentPayer         solanago.PublicKey
	Currency          solanago.PublicKey
	Amount            uint64
	PriceOffset       int32
	NftsHeld          uint32
	Stats             PoolStats
	SharedEscrow      solanago.PublicKey
	Cosigner          solanago.PublicKey
	MakerBroker       solanago.PublicKey
	MaxTakerSellCount uint32
	Config            PoolConfig
}

func (p *Pool) IsOnSharedEscrow() bool {
	return !p.SharedEscrow.IsZero()
}

func (p *Pool) HasCosigner() bool {
	return !p.Cosigner.IsZero()
}

func (p *Pool) HasMakerBroker() bool {
	return !p.MakerBroker.IsZero()
}

func (p *Pool) IsNativeCurrency() bool {
	return p.Currency.IsZero()
}

// IsExpired reports whether now is past the pool's expiry.
func (p *Pool) IsExpired(now int64) bool {
	return now > p.Expiry
}

// NetTakerSells is the number of NFTs sold into the pool that have not been
// bought back out of it.
func (p *Pool) NetTakerSells() int64 {
	return int64(p.Stats.TakerSellCount) - int64(p.Stats.TakerBuyCount)
}

// DepositReceipt proves that Mint is escrowed by Pool.
type DepositReceipt struct {
	Bump uint8
	Mint solanago.PublicKey
	Pool solanago.PublicKey
}

type SharedEscrow struct {
	Version       uint8
	Bump          uint8
	Owner         solanago.PublicKey
	Name          [32]uint8
	Nr            uint16
	PoolsAttached uint32
	Balance       uint64
}

type SingleListing struct {
	Version     uint8
	Bump        uint8
	Owner       solanago.PublicKey
	NftMint     solanago.PublicKey
	Price       uint64
	MakerBroker solanago.PublicKey
	CreatedAt   int64
}

// Fees is the split of the taker fee charged on a pool trade.
type Fees struct {
	TakerFee       uint64
	ProtocolFee    uint64
	MakerBrokerFee uint64
	TakerBrokerFee uint64
}

// LegacyFees is the split used by single listings.
type LegacyFees struct {
	TakerFee    uint64
	ProtocolFee uint64
	MakerRebate uint64
	BrokerFee   uint64
}

// Creator is a royalty recipient taken from the NFT metadata.
type Creator struct {
	Address  solanago.PublicKey
	Share    uint8
	Verified bool
}

// RoyaltyInfo is the royalty policy of the NFT being traded.
type RoyaltyInfo struct {
	SellerFeeBasisPoints uint16
	Creators             []Creator
	// Enforced NFTs always pay full royalties.
	Enforced bool
}

type CreatorPayment struct {
	Address solanago.PublicKey
	Amount  uint64
}
