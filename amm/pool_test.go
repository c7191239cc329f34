package amm

import (
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	"github.com/krazyTry/nft-amm-go/amm/shared"
	"github.com/krazyTry/nft-amm-go/state"
)

func TestCreateThenCloseEmptyPool(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(10 * sol)

	address := f.createPool(owner, tradeConfig())
	assert.Equal(t, uint64(10*sol)-rent(shared.PoolSize), f.balance(owner))

	pool := f.pool(address)
	assert.Equal(t, shared.CurrentPoolVersion, pool.Version)
	assert.Equal(t, owner, pool.Owner)
	assert.Equal(t, owner, pool.RentPayer)
	assert.Equal(t, f.now, pool.CreatedAt)
	assert.Equal(t, f.now+shared.MaxExpirySec, pool.Expiry)
	assert.Zero(t, pool.NftsHeld)
	assert.Zero(t, pool.PriceOffset)
	assert.Zero(t, pool.Amount)

	require.NoError(t, f.engine.ClosePool(f.ctx, owner, address))
	_, err := f.engine.GetPool(f.ctx, address)
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
	assert.Equal(t, uint64(10*sol), f.balance(owner))
}

func TestCreatePoolValidation(t *testing.T) {
	noFee := tradeConfig()
	noFee.MmFeeBps = shared.NullableU16{}
	highFee := tradeConfig()
	highFee.MmFeeBps = shared.SomeU16(10_000)
	steep := tokenConfig()
	steep.CurveType = shared.CurveTypeExponential
	steep.Delta = 10_000
	free := tokenConfig()
	free.StartingPrice = 0
	feeOnNft := nftConfig()
	feeOnNft.MmFeeBps = shared.SomeU16(100)

	cases := []struct {
		name  string
		edit  func(*CreatePoolParams)
		error error
	}{
		{"starting price", func(p *CreatePoolParams) { p.Config = free }, shared.ErrStartingPriceTooSmall},
		{"missing fee", func(p *CreatePoolParams) { p.Config = noFee }, shared.ErrMissingFees},
		{"fee too high", func(p *CreatePoolParams) { p.Config = highFee }, shared.ErrFeesTooHigh},
		{"delta too large", func(p *CreatePoolParams) { p.Config = steep }, shared.ErrDeltaTooLarge},
		{"fee on nft pool", func(p *CreatePoolParams) { p.Config = feeOnNft }, shared.ErrFeesNotAllowed},
		{"cosigner on trade pool", func(p *CreatePoolParams) { p.Cosigner = newKey() }, shared.ErrWrongPoolType},
		{"spl currency", func(p *CreatePoolParams) { p.Currency = newKey() }, shared.ErrSplCurrencyNotSupported},
		{"expiry too far", func(p *CreatePoolParams) { p.Expiry = 1_700_000_000 + shared.MaxExpirySec + 1 }, shared.ErrExpiryTooLarge},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			params := CreatePoolParams{Owner: f.funded(sol), PoolID: newKey(), Config: tradeConfig()}
			c.edit(&params)
			before := f.snapshot()
			_, err := f.engine.CreatePool(f.ctx, params)
			require.ErrorIs(t, err, c.error)
			assert.Equal(t, before, f.snapshot())
		})
	}
}

func TestCreatePoolTwice(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(sol)
	params := CreatePoolParams{Owner: owner, PoolID: newKey(), Config: tradeConfig()}

	_, err := f.engine.CreatePool(f.ctx, params)
	require.NoError(t, err)
	_, err = f.engine.CreatePool(f.ctx, params)
	require.ErrorIs(t, err, shared.ErrAccountExists)
}

func TestDepositThenAttemptClose(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(sol)
	address := f.createPool(owner, nftConfig())
	mint := f.depositNft(owner, address)
	assert.Equal(t, address, f.holder(mint))

	err := f.engine.ClosePool(f.ctx, owner, address)
	require.ErrorIs(t, err, shared.ErrExistingNfts)
	assert.Equal(t, uint32(1), f.pool(address).NftsHeld)
}

func TestClosePoolRequiresOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(sol)
	address := f.createPool(owner, tradeConfig())

	require.ErrorIs(t, f.engine.ClosePool(f.ctx, newKey(), address), shared.ErrWrongOwner)
	f.pool(address)
}

func TestCloseExpiredPool(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(2 * sol)
	payer := f.funded(sol)
	address := f.createPool(owner, tokenConfig(), func(p *CreatePoolParams) {
		p.RentPayer = payer
		p.Expiry = f.now + 100
	})
	require.NoError(t, f.engine.DepositSol(f.ctx, owner, address, sol))
	assert.Equal(t, uint64(sol)-rent(shared.PoolSize), f.balance(payer))

	require.ErrorIs(t, f.engine.CloseExpiredPool(f.ctx, address, payer), shared.ErrPoolNotExpired)

	f.now += 101
	require.ErrorIs(t, f.engine.DepositSol(f.ctx, owner, address, 1), shared.ErrExpiredPool)
	require.ErrorIs(t, f.engine.CloseExpiredPool(f.ctx, address, owner), shared.ErrWrongRentPayer)
	require.NoError(t, f.engine.CloseExpiredPool(f.ctx, address, payer))

	assert.Equal(t, uint64(sol), f.balance(payer))
	assert.Equal(t, uint64(2*sol), f.balance(owner))
}

func TestEditPool(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(sol)
	address := f.createPool(owner, tradeConfig())

	asToken := tokenConfig()
	err := f.engine.EditPool(f.ctx, EditPoolParams{Owner: owner, Pool: address, Config: &asToken})
	require.ErrorIs(t, err, shared.ErrWrongPoolType)

	cosigner := newKey()
	err = f.engine.EditPool(f.ctx, EditPoolParams{Owner: owner, Pool: address, Cosigner: &cosigner})
	require.ErrorIs(t, err, shared.ErrWrongPoolType)

	steeper := tradeConfig()
	steeper.Delta = 5_000
	err = f.engine.EditPool(f.ctx, EditPoolParams{Owner: newKey(), Pool: address, Config: &steeper})
	require.ErrorIs(t, err, shared.ErrWrongOwner)

	broker := newKey()
	expiry := f.now + 3_600
	f.now += 10
	require.NoError(t, f.engine.EditPool(f.ctx, EditPoolParams{
		Owner:       owner,
		Pool:        address,
		Config:      &steeper,
		MakerBroker: &broker,
		Expiry:      &expiry,
	}))

	pool := f.pool(address)
	assert.Equal(t, uint64(5_000), pool.Config.Delta)
	assert.Equal(t, broker, pool.MakerBroker)
	assert.Equal(t, expiry, pool.Expiry)
	assert.Equal(t, f.now, pool.UpdatedAt)
	assert.Equal(t, solanago.PublicKey{}, pool.Cosigner)
}

func TestWithdrawSolKeepsRent(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(2 * sol)
	address := f.createPool(owner, tokenConfig())
	require.NoError(t, f.engine.DepositSol(f.ctx, owner, address, sol))

	require.ErrorIs(t, f.engine.WithdrawSol(f.ctx, owner, address, sol+1), shared.ErrPoolKeepAlive)
	require.NoError(t, f.engine.WithdrawSol(f.ctx, owner, address, sol))

	assert.Zero(t, f.pool(address).Amount)
	assert.Equal(t, rent(shared.PoolSize), f.balance(address))
}

func TestSolFlowsRequireCurrencyPool(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(2 * sol)
	address := f.createPool(owner, nftConfig())

	require.ErrorIs(t, f.engine.DepositSol(f.ctx, owner, address, sol), shared.ErrWrongPoolType)
	require.ErrorIs(t, f.engine.WithdrawMmFee(f.ctx, owner, address, 1), shared.ErrWrongPoolType)
}

// setPoolVersion rewrites the stored layout version of a pool.
func (f *fixture) setPoolVersion(address solanago.PublicKey, version uint8) {
	raw, err := f.db.Read(f.ctx, state.AccountKey(address))
	require.NoError(f.t, err)
	account, err := state.UnmarshalAccount(raw)
	require.NoError(f.t, err)
	pool, err := helpers.DecodePool(account.Data)
	require.NoError(f.t, err)

	pool.Version = version
	account.Data, err = helpers.EncodePool(pool)
	require.NoError(f.t, err)
	raw, err = account.Marshal()
	require.NoError(f.t, err)
	require.NoError(f.t, f.db.Write(f.ctx, state.AccountKey(address), raw))
}

func TestStalePoolVersionIsRejected(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(10 * sol)
	address := f.createPool(owner, tradeConfig())
	require.NoError(t, f.engine.DepositSol(f.ctx, owner, address, 2*sol))
	listed := f.depositNft(owner, address)
	f.setPoolVersion(address, 0)

	taker := f.funded(5 * sol)
	held := f.mintTo(taker)
	before := f.snapshot()

	_, err := f.engine.BuyNft(f.ctx, TakerBuyParams{Buyer: taker, Pool: address, Mint: listed, MaxAmount: sol})
	require.ErrorIs(t, err, shared.ErrWrongPoolVersion)
	_, err = f.engine.SellNft(f.ctx, TakerSellParams{Seller: taker, Pool: address, Mint: held})
	require.ErrorIs(t, err, shared.ErrWrongPoolVersion)
	_, err = f.engine.DepositNft(f.ctx, DepositNftParams{Owner: owner, Pool: address, Mint: f.mintTo(owner)})
	require.ErrorIs(t, err, shared.ErrWrongPoolVersion)
	config := tradeConfig()
	config.StartingPrice = 2_000_000
	err = f.engine.EditPool(f.ctx, EditPoolParams{Owner: owner, Pool: address, Config: &config})
	require.ErrorIs(t, err, shared.ErrWrongPoolVersion)

	assert.Equal(t, before, f.snapshot())
	assert.Equal(t, address, f.holder(listed))
	assert.Equal(t, taker, f.holder(held))
	assert.Equal(t, uint8(0), f.pool(address).Version)
}
