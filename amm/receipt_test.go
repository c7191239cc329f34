package amm

import (
	"context"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/nft-amm-go/amm/shared"
)

func TestReceiptUniqueness(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(sol)
	pool := f.createPool(owner, nftConfig())
	mint := f.depositNft(owner, pool)

	address, receipt, ok, err := f.engine.GetReceipt(f.ctx, mint, pool)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mint, receipt.Mint)
	assert.Equal(t, pool, receipt.Pool)

	_, err = f.engine.DepositNft(f.ctx, DepositNftParams{Owner: owner, Pool: pool, Mint: mint})
	require.ErrorIs(t, err, shared.ErrAccountExists)
	assert.Equal(t, uint32(1), f.pool(pool).NftsHeld)

	require.NoError(t, f.engine.WithdrawNft(f.ctx, WithdrawNftParams{Owner: owner, Pool: pool, Mint: mint, Receipt: &address}))
	assert.Equal(t, owner, f.holder(mint))
	_, _, ok, err = f.engine.GetReceipt(f.ctx, mint, pool)
	require.NoError(t, err)
	assert.False(t, ok)

	reopened, err := f.engine.DepositNft(f.ctx, DepositNftParams{Owner: owner, Pool: pool, Mint: mint})
	require.NoError(t, err)
	assert.Equal(t, address, reopened)
}

func TestReceiptRentRoundTrip(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(sol)
	pool := f.createPool(owner, nftConfig())
	start := f.balance(owner)

	mint := f.depositNft(owner, pool)
	assert.Equal(t, start-rent(shared.DepositReceiptSize), f.balance(owner))

	require.NoError(t, f.engine.WithdrawNft(f.ctx, WithdrawNftParams{Owner: owner, Pool: pool, Mint: mint}))
	assert.Equal(t, start, f.balance(owner))
	assert.Zero(t, f.pool(pool).NftsHeld)
}

func TestWithdrawNftReceiptMismatch(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(sol)
	poolA := f.createPool(owner, nftConfig())
	poolB := f.createPool(owner, nftConfig())
	mintA := f.depositNft(owner, poolA)
	mintB := f.depositNft(owner, poolB)
	receiptA, _, _, err := f.engine.GetReceipt(f.ctx, mintA, poolA)
	require.NoError(t, err)
	receiptB, _, _, err := f.engine.GetReceipt(f.ctx, mintB, poolB)
	require.NoError(t, err)

	before := f.snapshot()

	err = f.engine.WithdrawNft(f.ctx, WithdrawNftParams{Owner: owner, Pool: poolA, Mint: mintB})
	require.ErrorIs(t, err, shared.ErrWrongMint)

	err = f.engine.WithdrawNft(f.ctx, WithdrawNftParams{Owner: owner, Pool: poolA, Mint: mintB, Receipt: &receiptA})
	require.ErrorIs(t, err, shared.ErrWrongMint)

	err = f.engine.WithdrawNft(f.ctx, WithdrawNftParams{Owner: owner, Pool: poolA, Mint: mintB, Receipt: &receiptB})
	require.ErrorIs(t, err, shared.ErrWrongPool)

	missing := newKey()
	err = f.engine.WithdrawNft(f.ctx, WithdrawNftParams{Owner: owner, Pool: poolA, Mint: mintA, Receipt: &missing})
	require.ErrorIs(t, err, shared.ErrWrongMint)

	assert.Equal(t, before, f.snapshot())
	assert.Equal(t, poolA, f.holder(mintA))
	assert.Equal(t, poolB, f.holder(mintB))
}

func TestDepositNftWhitelist(t *testing.T) {
	good := newKey()
	whitelist := newKey()
	f := newFixture(t, WithWhitelistVerifier(WhitelistFunc(func(_ context.Context, wl, mint solanago.PublicKey, _ [][]byte) (bool, error) {
		return wl.Equals(whitelist) && mint.Equals(good), nil
	})))
	owner := f.funded(sol)
	pool := f.createPool(owner, nftConfig(), func(p *CreatePoolParams) { p.Whitelist = whitelist })

	f.assets.Mint(good, owner)
	bad := f.mintTo(owner)

	_, err := f.engine.DepositNft(f.ctx, DepositNftParams{Owner: owner, Pool: pool, Mint: good})
	require.ErrorIs(t, err, shared.ErrBadWhitelist)
	_, err = f.engine.DepositNft(f.ctx, DepositNftParams{Owner: owner, Pool: pool, Mint: bad, Whitelist: whitelist})
	require.ErrorIs(t, err, shared.ErrWhitelistVerificationFailed)
	_, err = f.engine.DepositNft(f.ctx, DepositNftParams{Owner: owner, Pool: pool, Mint: good, Whitelist: whitelist})
	require.NoError(t, err)
}

func TestDepositNftRequiresNftPool(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(sol)
	pool := f.createPool(owner, tokenConfig())
	mint := f.mintTo(owner)

	_, err := f.engine.DepositNft(f.ctx, DepositNftParams{Owner: owner, Pool: pool, Mint: mint})
	require.ErrorIs(t, err, shared.ErrWrongPoolType)
	assert.Equal(t, owner, f.holder(mint))
}
