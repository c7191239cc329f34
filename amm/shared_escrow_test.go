package amm

import (
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

func (f *fixture) createEscrow(owner solanago.PublicKey, nr uint16) solanago.PublicKey {
	var name [32]byte
	copy(name[:], "bids")
	address, err := f.engine.CreateSharedEscrow(f.ctx, owner, nr, name)
	require.NoError(f.t, err)
	return address
}

func TestSharedEscrowAttachmentCounting(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(10 * sol)
	escrow := f.createEscrow(owner, 0)
	first := f.createPool(owner, tokenConfig())
	second := f.createPool(owner, tradeConfig())
	require.NoError(t, f.engine.DepositSol(f.ctx, owner, first, sol))
	require.NoError(t, f.engine.DepositSol(f.ctx, owner, second, sol))

	require.NoError(t, f.engine.AttachPoolToSharedEscrow(f.ctx, owner, first, escrow))
	require.NoError(t, f.engine.AttachPoolToSharedEscrow(f.ctx, owner, second, escrow))
	require.ErrorIs(t, f.engine.AttachPoolToSharedEscrow(f.ctx, owner, first, escrow), shared.ErrPoolOnSharedEscrow)

	state := f.escrow(escrow)
	assert.Equal(t, uint32(2), state.PoolsAttached)
	assert.Equal(t, uint64(2*sol), state.Balance)
	assert.Equal(t, rent(shared.SharedEscrowSize)+2*sol, f.balance(escrow))
	assert.Zero(t, f.pool(first).Amount)
	assert.Equal(t, rent(shared.PoolSize), f.balance(first))

	require.ErrorIs(t, f.engine.CloseSharedEscrow(f.ctx, owner, escrow), shared.ErrSharedEscrowInUse)
	require.ErrorIs(t, f.engine.ClosePool(f.ctx, owner, first), shared.ErrPoolOnSharedEscrow)
	require.ErrorIs(t, f.engine.DepositSol(f.ctx, owner, first, 1), shared.ErrPoolOnSharedEscrow)

	other := f.createEscrow(owner, 1)
	require.ErrorIs(t, f.engine.DetachPoolFromSharedEscrow(f.ctx, owner, first, other, 0), shared.ErrBadSharedEscrow)

	require.NoError(t, f.engine.DetachPoolFromSharedEscrow(f.ctx, owner, first, escrow, sol))
	require.ErrorIs(t, f.engine.DetachPoolFromSharedEscrow(f.ctx, owner, first, escrow, 0), shared.ErrPoolNotOnSharedEscrow)
	assert.Equal(t, uint32(1), f.escrow(escrow).PoolsAttached)
	assert.Equal(t, uint64(sol), f.pool(first).Amount)

	require.ErrorIs(t, f.engine.DetachPoolFromSharedEscrow(f.ctx, owner, second, escrow, sol+1), shared.ErrInsufficientBalance)
	require.NoError(t, f.engine.DetachPoolFromSharedEscrow(f.ctx, owner, second, escrow, 0))
	assert.Zero(t, f.escrow(escrow).PoolsAttached)

	before := f.balance(owner)
	require.NoError(t, f.engine.CloseSharedEscrow(f.ctx, owner, escrow))
	assert.Equal(t, before+rent(shared.SharedEscrowSize)+sol, f.balance(owner))
	_, err := f.engine.GetSharedEscrow(f.ctx, escrow)
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestAttachRequiresCurrencyPoolAndSameOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(10 * sol)
	stranger := f.funded(sol)
	escrow := f.createEscrow(owner, 0)
	foreign := f.createEscrow(stranger, 0)

	nftPool := f.createPool(owner, nftConfig())
	require.ErrorIs(t, f.engine.AttachPoolToSharedEscrow(f.ctx, owner, nftPool, escrow), shared.ErrWrongPoolType)

	tokenPool := f.createPool(owner, tokenConfig())
	require.ErrorIs(t, f.engine.AttachPoolToSharedEscrow(f.ctx, owner, tokenPool, foreign), shared.ErrBadSharedEscrow)
	require.ErrorIs(t, f.engine.AttachPoolToSharedEscrow(f.ctx, stranger, tokenPool, escrow), shared.ErrWrongOwner)
	require.ErrorIs(t, f.engine.DepositSharedEscrow(f.ctx, stranger, escrow, 1), shared.ErrWrongOwner)
}

func TestSellIntoEscrowBackedPool(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(10 * sol)
	escrow := f.createEscrow(owner, 7)
	require.NoError(t, f.engine.DepositSharedEscrow(f.ctx, owner, escrow, 3*sol))
	address := f.createPool(owner, tokenConfig())
	require.NoError(t, f.engine.AttachPoolToSharedEscrow(f.ctx, owner, address, escrow))

	seller := f.funded(sol)
	mint := f.mintTo(seller)
	_, err := f.engine.SellNft(f.ctx, TakerSellParams{Seller: seller, Pool: address, Mint: mint})
	require.ErrorIs(t, err, shared.ErrBadSharedEscrow)

	q, err := f.engine.SellNft(f.ctx, TakerSellParams{Seller: seller, Pool: address, Mint: mint, SharedEscrow: escrow})
	require.NoError(t, err)
	assert.Equal(t, uint64(980_000), q.Total)
	assert.Equal(t, uint64(3*sol-1_000_000), f.escrow(escrow).Balance)
	assert.Equal(t, uint64(sol+980_000), f.balance(seller))
	assert.Equal(t, owner, f.holder(mint))

	// attached pools are never auto-closed
	pool := f.pool(address)
	assert.Equal(t, int32(-1), pool.PriceOffset)
	assert.Zero(t, pool.Amount)
}

func TestBuyFromEscrowBackedTradePool(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(10 * sol)
	escrow := f.createEscrow(owner, 0)
	address := f.createPool(owner, tradeConfig())
	mint := f.depositNft(owner, address)
	require.NoError(t, f.engine.AttachPoolToSharedEscrow(f.ctx, owner, address, escrow))
	ownerBefore := f.balance(owner)

	buyer := f.funded(sol)
	_, err := f.engine.BuyNft(f.ctx, TakerBuyParams{Buyer: buyer, Pool: address, Mint: mint, MaxAmount: sol, SharedEscrow: escrow})
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000_000), f.escrow(escrow).Balance)
	// mm fee and the receipt rent go to the owner
	assert.Equal(t, ownerBefore+25_000+rent(shared.DepositReceiptSize), f.balance(owner))
	assert.Zero(t, f.pool(address).Stats.AccumulatedMmProfit)
}

func TestWithdrawSharedEscrowWithCapability(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(10 * sol)
	escrow := f.createEscrow(owner, 0)
	require.NoError(t, f.engine.DepositSharedEscrow(f.ctx, owner, escrow, sol))
	destination := newKey()

	untrusted := Capability{Program: newKey(), StateAccount: newKey()}
	err := f.engine.WithdrawSharedEscrowWithCapability(f.ctx, untrusted, escrow, destination, 1)
	require.ErrorIs(t, err, shared.ErrWrongAuthority)

	unsigned := Capability{Program: helpers.MarketplaceProgramID}
	err = f.engine.WithdrawSharedEscrowWithCapability(f.ctx, unsigned, escrow, destination, 1)
	require.ErrorIs(t, err, shared.ErrWrongAuthority)

	trusted := Capability{Program: helpers.MarketplaceProgramID, StateAccount: newKey()}
	err = f.engine.WithdrawSharedEscrowWithCapability(f.ctx, trusted, escrow, destination, sol+1)
	require.ErrorIs(t, err, shared.ErrInsufficientBalance)
	require.NoError(t, f.engine.WithdrawSharedEscrowWithCapability(f.ctx, trusted, escrow, destination, 400_000))

	assert.Equal(t, uint64(400_000), f.balance(destination))
	assert.Equal(t, uint64(sol-400_000), f.escrow(escrow).Balance)

	require.NoError(t, f.engine.WithdrawSharedEscrow(f.ctx, owner, escrow, sol-400_000))
	assert.Zero(t, f.escrow(escrow).Balance)
}

func TestCapabilityAllowList(t *testing.T) {
	custom := newKey()
	f := newFixture(t, WithCapabilityVerifier(NewAllowList(custom)))
	owner := f.funded(sol)
	escrow := f.createEscrow(owner, 0)
	require.NoError(t, f.engine.DepositSharedEscrow(f.ctx, owner, escrow, 1_000))

	err := f.engine.WithdrawSharedEscrowWithCapability(f.ctx, Capability{Program: helpers.TensorSwapProgramID, StateAccount: newKey()}, escrow, owner, 1)
	require.ErrorIs(t, err, shared.ErrWrongAuthority)
	require.NoError(t, f.engine.WithdrawSharedEscrowWithCapability(f.ctx, Capability{Program: custom, StateAccount: newKey()}, escrow, owner, 1))
}
