package amm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/nft-amm-go/amm/shared"
)

func TestListingLifecycle(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(sol)
	mint := f.mintTo(owner)

	_, err := f.engine.List(f.ctx, ListParams{Owner: owner, Mint: mint})
	require.ErrorIs(t, err, shared.ErrStartingPriceTooSmall)

	address, err := f.engine.List(f.ctx, ListParams{Owner: owner, Mint: mint, Price: 1_000_000})
	require.NoError(t, err)
	assert.Equal(t, address, f.holder(mint))
	assert.Equal(t, uint64(sol)-rent(shared.SingleListingSize), f.balance(owner))

	require.ErrorIs(t, f.engine.EditListing(f.ctx, newKey(), mint, 2_000_000), shared.ErrWrongOwner)
	require.NoError(t, f.engine.EditListing(f.ctx, owner, mint, 2_000_000))
	_, listing, err := f.engine.GetListing(f.ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), listing.Price)

	buyer := f.funded(sol)
	_, err = f.engine.BuyListing(f.ctx, BuyListingParams{Buyer: buyer, Mint: mint, MaxPrice: 1_999_999})
	require.ErrorIs(t, err, shared.ErrPriceMismatch)

	fees, err := f.engine.BuyListing(f.ctx, BuyListingParams{Buyer: buyer, Mint: mint, MaxPrice: 2_000_000})
	require.NoError(t, err)
	assert.Equal(t, shared.LegacyFees{TakerFee: 30_000, ProtocolFee: 12_500, MakerRebate: 5_000, BrokerFee: 12_500}, fees)

	assert.Equal(t, buyer, f.holder(mint))
	assert.Equal(t, uint64(sol-2_030_000), f.balance(buyer))
	assert.Equal(t, uint64(sol+2_005_000), f.balance(owner))
	assert.Equal(t, uint64(25_000), f.balance(f.engine.FeeVault()))

	_, _, err = f.engine.GetListing(f.ctx, mint)
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestBuyListingBrokers(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(sol)
	makerBroker, takerBroker := newKey(), newKey()

	first := f.mintTo(owner)
	_, err := f.engine.List(f.ctx, ListParams{Owner: owner, Mint: first, Price: 1_000_000, MakerBroker: makerBroker})
	require.NoError(t, err)
	second := f.mintTo(owner)
	_, err = f.engine.List(f.ctx, ListParams{Owner: owner, Mint: second, Price: 1_000_000, MakerBroker: makerBroker})
	require.NoError(t, err)

	buyer := f.funded(sol)
	_, err = f.engine.BuyListing(f.ctx, BuyListingParams{Buyer: buyer, Mint: first, MaxPrice: 1_000_000})
	require.NoError(t, err)
	assert.Equal(t, uint64(6_250), f.balance(makerBroker))

	_, err = f.engine.BuyListing(f.ctx, BuyListingParams{Buyer: buyer, Mint: second, MaxPrice: 1_000_000, TakerBroker: takerBroker})
	require.NoError(t, err)
	assert.Equal(t, uint64(6_250), f.balance(takerBroker))
	assert.Equal(t, uint64(12_500), f.balance(f.engine.FeeVault()))
}

func TestDelist(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(sol)
	mint := f.mintTo(owner)
	_, err := f.engine.List(f.ctx, ListParams{Owner: owner, Mint: mint, Price: 5})
	require.NoError(t, err)

	require.ErrorIs(t, f.engine.Delist(f.ctx, newKey(), mint), shared.ErrWrongOwner)
	require.NoError(t, f.engine.Delist(f.ctx, owner, mint))
	assert.Equal(t, owner, f.holder(mint))
	assert.Equal(t, uint64(sol), f.balance(owner))
}
