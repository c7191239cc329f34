package amm

import (
	"bytes"
	"context"
	"errors"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	"github.com/krazyTry/nft-amm-go/amm/shared"
	"github.com/krazyTry/nft-amm-go/metrics"
	nftsolana "github.com/krazyTry/nft-amm-go/solana"
	"github.com/krazyTry/nft-amm-go/store"
)

const sol = helpers.LamportsPerSol

type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *store.MemDB
	assets *MemoryAssets
	engine *Engine
	now    int64
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		db:     store.NewMemDB(),
		assets: NewMemoryAssets(),
		now:    1_700_000_000,
	}
	base := []Option{
		WithAssetTransfer(f.assets),
		WithNowFunc(func() int64 { return f.now }),
		WithLogger(zaptest.NewLogger(t)),
		WithMetrics(metrics.AMM()),
	}
	f.engine = NewEngine(f.db, append(base, opts...)...)
	return f
}

func newKey() solanago.PublicKey {
	return solanago.NewWallet().PublicKey()
}

func rent(size int) uint64 {
	return nftsolana.DefaultRent{}.MinimumBalance(uint64(size))
}

func (f *fixture) funded(lamports uint64) solanago.PublicKey {
	wallet := newKey()
	require.NoError(f.t, f.engine.Airdrop(f.ctx, wallet, lamports))
	return wallet
}

func (f *fixture) balance(address solanago.PublicKey) uint64 {
	balance, err := f.engine.Balance(f.ctx, address)
	require.NoError(f.t, err)
	return balance
}

func (f *fixture) pool(address solanago.PublicKey) *shared.Pool {
	pool, err := f.engine.GetPool(f.ctx, address)
	require.NoError(f.t, err)
	return pool
}

func (f *fixture) escrow(address solanago.PublicKey) *shared.SharedEscrow {
	escrow, err := f.engine.GetSharedEscrow(f.ctx, address)
	require.NoError(f.t, err)
	return escrow
}

func (f *fixture) createPool(owner solanago.PublicKey, config shared.PoolConfig, edits ...func(*CreatePoolParams)) solanago.PublicKey {
	params := CreatePoolParams{Owner: owner, PoolID: newKey(), Config: config}
	for _, edit := range edits {
		edit(&params)
	}
	address, err := f.engine.CreatePool(f.ctx, params)
	require.NoError(f.t, err)
	return address
}

// mintTo creates a fresh NFT held by owner.
func (f *fixture) mintTo(owner solanago.PublicKey) solanago.PublicKey {
	mint := newKey()
	f.assets.Mint(mint, owner)
	return mint
}

func (f *fixture) depositNft(owner, pool solanago.PublicKey) solanago.PublicKey {
	mint := f.mintTo(owner)
	_, err := f.engine.DepositNft(f.ctx, DepositNftParams{Owner: owner, Pool: pool, Mint: mint})
	require.NoError(f.t, err)
	return mint
}

func (f *fixture) holder(mint solanago.PublicKey) solanago.PublicKey {
	owner, ok := f.assets.OwnerOf(mint)
	require.True(f.t, ok)
	return owner
}

// snapshot copies every key of the store.
func (f *fixture) snapshot() map[string][]byte {
	iter, err := f.db.Iterator(f.ctx, nil, nil)
	require.NoError(f.t, err)
	defer iter.Close()

	out := make(map[string][]byte)
	for iter.Next() {
		out[string(iter.Key())] = bytes.Clone(iter.Value())
	}
	require.NoError(f.t, iter.Error())
	return out
}

func tradeConfig() shared.PoolConfig {
	return shared.PoolConfig{
		PoolType:      shared.PoolTypeTrade,
		CurveType:     shared.CurveTypeLinear,
		StartingPrice: 1_000_000,
		Delta:         100,
		MmFeeBps:      shared.SomeU16(250),
	}
}

func nftConfig() shared.PoolConfig {
	return shared.PoolConfig{
		PoolType:      shared.PoolTypeNFT,
		CurveType:     shared.CurveTypeLinear,
		StartingPrice: 1_000_000,
		Delta:         100,
	}
}

func tokenConfig() shared.PoolConfig {
	return shared.PoolConfig{
		PoolType:      shared.PoolTypeToken,
		CurveType:     shared.CurveTypeLinear,
		StartingPrice: 1_000_000,
		Delta:         100,
	}
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(store.NewMemDB())
	require.Equal(t, helpers.NftAmmProgramID, e.ProgramID())
	require.Equal(t, helpers.DeriveFeeVaultAddress(helpers.NftAmmProgramID), e.FeeVault())
	require.IsType(t, &MemoryAssets{}, e.Assets())

	other := newKey()
	require.Equal(t, helpers.DeriveFeeVaultAddress(other), NewEngine(store.NewMemDB(), WithProgramID(other)).FeeVault())
}

func TestAirdropAndBalance(t *testing.T) {
	f := newFixture(t)
	wallet := f.funded(3 * sol)
	require.Equal(t, uint64(3*sol), f.balance(wallet))
	require.Zero(t, f.balance(newKey()))
}

var errBatchRejected = errors.New("batch rejected")

// rejectingDB refuses every batch so commits fail after transfers ran.
type rejectingDB struct {
	*store.MemDB
}

func (rejectingDB) Batch(context.Context, []store.BatchOperation) error {
	return errBatchRejected
}

func TestCommitFailureHandsBackAssets(t *testing.T) {
	f := newFixture(t)
	owner := f.funded(2 * sol)
	address := f.createPool(owner, nftConfig())
	mint := f.depositNft(owner, address)
	buyer := f.funded(2 * sol)
	before := f.snapshot()

	e := NewEngine(rejectingDB{f.db},
		WithAssetTransfer(f.assets),
		WithNowFunc(func() int64 { return f.now }),
		WithLogger(zaptest.NewLogger(t)),
		WithMetrics(metrics.AMM()),
	)
	_, err := e.BuyNft(f.ctx, TakerBuyParams{Buyer: buyer, Pool: address, Mint: mint, MaxAmount: sol})
	require.ErrorIs(t, err, errBatchRejected)
	assert.Equal(t, address, f.holder(mint))
	assert.Equal(t, before, f.snapshot())

	_, err = f.engine.BuyNft(f.ctx, TakerBuyParams{Buyer: buyer, Pool: address, Mint: mint, MaxAmount: sol})
	require.NoError(t, err)
	assert.Equal(t, buyer, f.holder(mint))
}

func TestFailedTransferHandsBackEarlierOnes(t *testing.T) {
	f := newFixture(t)
	from, to := newKey(), newKey()
	first := f.mintTo(from)
	second := f.mintTo(to)

	err := f.engine.run(f.ctx, "transfer_pair", func(tx *txn) error {
		tx.queueTransfer(AssetTransferRequest{Mint: first, From: from, To: to, Authority: from})
		tx.queueTransfer(AssetTransferRequest{Mint: second, From: from, To: to, Authority: from})
		return nil
	})
	require.ErrorIs(t, err, shared.ErrWrongOwner)
	assert.Equal(t, from, f.holder(first))
	assert.Equal(t, to, f.holder(second))
}
