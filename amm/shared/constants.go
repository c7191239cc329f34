package shared

const (
	// CurrentPoolVersion is the schema version every mutating operation requires.
	CurrentPoolVersion uint8 = 1
	// CurrentSharedEscrowVersion is the schema version of shared escrow records.
	CurrentSharedEscrowVersion uint8 = 1
	// CurrentListingVersion is the schema version of single listing records.
	CurrentListingVersion uint8 = 1

	HundredPctBps = 10_000
	HundredPct    = 100

	// MaxDeltaBps bounds the exponential curve step (99.99%).
	MaxDeltaBps = 9_999
	// MaxMmFeeBps bounds the trade pool market making fee (99.99%).
	MaxMmFeeBps = 9_999

	// TakerFeeBps is charged on every pool trade (2%).
	TakerFeeBps = 200
	// BrokerFeePct is the share of the taker fee allocated to brokers.
	BrokerFeePct = 50
	// MakerBrokerPct is the maker broker's share of the broker allocation.
	MakerBrokerPct = 80

	// Legacy single listing fee flow.
	LegacyTakerFeeBps    = 150
	LegacyMakerRebateBps = 25
	LegacyBrokerPct      = 50

	// SpreadTicks separates a trade pool's bid from its ask.
	SpreadTicks = 1

	// MinPrice is the lowest price the curve may quote.
	MinPrice uint64 = 1

	// MaxExpirySec is the longest a pool may live (365 days).
	MaxExpirySec int64 = 365 * 24 * 60 * 60

	DiscriminatorSize = 8
)

// Account sizes used for rent accounting. They mirror the borsh layout plus
// the discriminator and leave room for additive fields.
const (
	PoolSize           = DiscriminatorSize + 447
	DepositReceiptSize = DiscriminatorSize + 1 + 32 + 32 + 64
	SharedEscrowSize   = DiscriminatorSize + 1 + 1 + 32 + 32 + 2 + 4 + 8 + 64
	SingleListingSize  = DiscriminatorSize + 1 + 1 + 32 + 32 + 8 + 32 + 8 + 64
)

// Account keys used for discriminators and program account filters.
var (
	AccountKeyPool           = "Pool"
	AccountKeyNftDepositRcpt = "NftDepositReceipt"
	AccountKeySharedEscrow   = "SharedEscrow"
	AccountKeySingleListing  = "SingleListing"
)
