package amm

import (
	solanago "github.com/gagliardetto/solana-go"

	"github.com/krazyTry/nft-amm-go/amm/shared"
)

type CreatePoolParams struct {
	Owner  solanago.PublicKey
	PoolID [32]byte
	Config shared.PoolConfig
	// RentPayer funds the pool account and receives its rent back on close.
	// Defaults to Owner.
	RentPayer         solanago.PublicKey
	Currency          solanago.PublicKey
	Whitelist         solanago.PublicKey
	Cosigner          solanago.PublicKey
	MakerBroker       solanago.PublicKey
	MaxTakerSellCount uint32
	// Expiry is a unix timestamp; zero means the longest allowed lifetime.
	Expiry int64
}

// EditPoolParams changes the non nil fields of a pool.
type EditPoolParams struct {
	Owner             solanago.PublicKey
	Pool              solanago.PublicKey
	Config            *shared.PoolConfig
	Cosigner          *solanago.PublicKey
	MakerBroker       *solanago.PublicKey
	MaxTakerSellCount *uint32
	Expiry            *int64
	ResetPriceOffset  bool
}

type DepositNftParams struct {
	Owner     solanago.PublicKey
	Pool      solanago.PublicKey
	Mint      solanago.PublicKey
	Whitelist solanago.PublicKey
	Proof     [][]byte
}

type WithdrawNftParams struct {
	Owner   solanago.PublicKey
	Pool    solanago.PublicKey
	Mint    solanago.PublicKey
	Receipt *solanago.PublicKey
}

// RoyaltyParams describe the royalties of the NFT being traded. Creators are
// the recipient accounts supplied by the caller and must match the metadata.
type RoyaltyParams struct {
	Info               shared.RoyaltyInfo
	OptionalRoyaltyPct *uint16
	Creators           []solanago.PublicKey
}

type TakerBuyParams struct {
	Buyer solanago.PublicKey
	Pool  solanago.PublicKey
	Mint  solanago.PublicKey
	// Receipt optionally names the deposit receipt to consume.
	Receipt *solanago.PublicKey
	// MaxAmount bounds the price plus market making fee the buyer accepts.
	MaxAmount    uint64
	TakerBroker  solanago.PublicKey
	SharedEscrow solanago.PublicKey
	Royalty      RoyaltyParams
}

type TakerSellParams struct {
	Seller solanago.PublicKey
	Pool   solanago.PublicKey
	Mint   solanago.PublicKey
	// MinPrice bounds the price net of market making fee the seller accepts.
	MinPrice     uint64
	TakerBroker  solanago.PublicKey
	SharedEscrow solanago.PublicKey
	// Cosigner is the co-signing key present on the request, if any.
	Cosigner  solanago.PublicKey
	Whitelist solanago.PublicKey
	Proof     [][]byte
	Royalty   RoyaltyParams
}

type ListParams struct {
	Owner       solanago.PublicKey
	Mint        solanago.PublicKey
	Price       uint64
	MakerBroker solanago.PublicKey
}

type BuyListingParams struct {
	Buyer       solanago.PublicKey
	Mint        solanago.PublicKey
	MaxPrice    uint64
	TakerBroker solanago.PublicKey
	Royalty     RoyaltyParams
}
