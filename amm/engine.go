// Package amm executes pool, escrow and listing operations against a keyed
// account store. Every operation is validated and staged in a buffered view,
// then committed in a single batch, so a failed operation leaves no trace.
package amm

import (
	"context"
	"fmt"
	"sync"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	"github.com/krazyTry/nft-amm-go/amm/shared"
	"github.com/krazyTry/nft-amm-go/metrics"
	nftsolana "github.com/krazyTry/nft-amm-go/solana"
	"github.com/krazyTry/nft-amm-go/state"
	"github.com/krazyTry/nft-amm-go/store"
)

type Engine struct {
	mu sync.Mutex

	db        store.DB
	programID solanago.PublicKey
	feeVault  solanago.PublicKey

	rent         nftsolana.Rent
	assets       AssetTransfer
	whitelist    WhitelistVerifier
	capabilities CapabilityVerifier
	autoClose    AutoClosePolicy

	metrics *metrics.AMMMetrics
	logger  *zap.Logger
	nowFn   func() int64
}

type Option func(*Engine)

func WithProgramID(programID solanago.PublicKey) Option {
	return func(e *Engine) { e.programID = programID }
}

func WithRent(rent nftsolana.Rent) Option {
	return func(e *Engine) { e.rent = rent }
}

func WithAssetTransfer(assets AssetTransfer) Option {
	return func(e *Engine) { e.assets = assets }
}

func WithWhitelistVerifier(verifier WhitelistVerifier) Option {
	return func(e *Engine) { e.whitelist = verifier }
}

func WithCapabilityVerifier(verifier CapabilityVerifier) Option {
	return func(e *Engine) { e.capabilities = verifier }
}

func WithAutoClosePolicy(policy AutoClosePolicy) Option {
	return func(e *Engine) { e.autoClose = policy }
}

func WithMetrics(m *metrics.AMMMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithNowFunc overrides the unix second clock. Intended for tests and
// simulations.
func WithNowFunc(now func() int64) Option {
	return func(e *Engine) { e.nowFn = now }
}

// NewEngine creates an engine over db. Without options it runs under the
// deployed program id, the default rent schedule, an in-memory asset ledger,
// an allow-all whitelist and the default trusted programs.
func NewEngine(db store.DB, opts ...Option) *Engine {
	e := &Engine{
		db:        db,
		programID: helpers.NftAmmProgramID,
		rent:      nftsolana.DefaultRent{},
		whitelist: AllowAllWhitelist{},
		autoClose: DefaultAutoClose{},
		logger:    zap.NewNop(),
		nowFn:     func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.assets == nil {
		e.assets = NewMemoryAssets()
	}
	if e.capabilities == nil {
		e.capabilities = NewAllowList(helpers.DefaultTrustedPrograms...)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	e.feeVault = helpers.DeriveFeeVaultAddress(e.programID)
	return e
}

func (e *Engine) ProgramID() solanago.PublicKey { return e.programID }

// FeeVault is the account protocol fees are paid to.
func (e *Engine) FeeVault() solanago.PublicKey { return e.feeVault }

func (e *Engine) Assets() AssetTransfer { return e.assets }

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// Fee kinds reported to metrics.
const (
	feeKindProtocol    = "protocol"
	feeKindMakerBroker = "maker_broker"
	feeKindTakerBroker = "taker_broker"
	feeKindRoyalty     = "royalty"
	feeKindMm          = "mm"
	feeKindMakerRebate = "maker_rebate"
)

type feeRecord struct {
	kind     string
	lamports uint64
}

// txn is the state of one operation: a buffered view plus the side effects
// held back until every check has passed.
type txn struct {
	ctx  context.Context
	e    *Engine
	view *state.View
	bank *state.Bank
	now  int64

	transfers []AssetTransferRequest
	fees      []feeRecord
	trades    []tradeRecord
	attached  int

	autoClosed []solanago.PublicKey
}

type tradeRecord struct {
	side  shared.TakerSide
	price uint64
}

// run executes fn under the engine lock and commits what it staged. Asset
// transfers run last, once fn has returned without error, and are handed
// back if the account changes fail to commit.
func (e *Engine) run(ctx context.Context, op string, fn func(tx *txn) error, fields ...zap.Field) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	view := state.NewView(e.db)
	tx := &txn{ctx: ctx, e: e, view: view, bank: state.NewBank(view), now: e.now()}

	err := fn(tx)
	var moved int
	if err == nil {
		moved, err = tx.flushTransfers()
	}
	if err == nil {
		err = view.Commit(ctx)
	}
	if err != nil {
		tx.revertTransfers(moved)
		view.Discard()
		e.metrics.ObserveFailure(op, err)
		e.logger.Debug("operation aborted", append(fields, zap.String("op", op), zap.Error(err))...)
		return err
	}

	e.metrics.ObserveOperation(op)
	for _, f := range tx.fees {
		e.metrics.ObserveFee(f.kind, f.lamports)
	}
	for _, t := range tx.trades {
		e.metrics.ObserveTrade(t.side, t.price)
	}
	for ; tx.attached > 0; tx.attached-- {
		e.metrics.PoolAttached()
	}
	for ; tx.attached < 0; tx.attached++ {
		e.metrics.PoolDetached()
	}
	for _, pool := range tx.autoClosed {
		e.logger.Info("pool auto-closed", zap.String("op", op), zap.Stringer("pool", pool))
	}
	e.logger.Debug("operation committed", append(fields, zap.String("op", op))...)
	return nil
}

func (tx *txn) queueTransfer(req AssetTransferRequest) {
	tx.transfers = append(tx.transfers, req)
}

// flushTransfers applies the queued transfers in order and reports how many
// went through.
func (tx *txn) flushTransfers() (int, error) {
	for i, req := range tx.transfers {
		if err := tx.e.assets.Transfer(tx.ctx, req); err != nil {
			tx.e.logger.Warn("asset transfer failed",
				zap.Stringer("mint", req.Mint),
				zap.Stringer("from", req.From),
				zap.Stringer("to", req.To),
				zap.Error(err))
			return i, fmt.Errorf("transfer %s: %w", req.Mint, err)
		}
	}
	return len(tx.transfers), nil
}

// revertTransfers moves the first n flushed assets back, newest first.
func (tx *txn) revertTransfers(n int) {
	ctx := context.WithoutCancel(tx.ctx)
	for i := n - 1; i >= 0; i-- {
		req := tx.transfers[i]
		back := AssetTransferRequest{Mint: req.Mint, From: req.To, To: req.From, Authority: req.To}
		if err := tx.e.assets.Transfer(ctx, back); err != nil {
			tx.e.logger.Error("asset custody diverged from account state",
				zap.Stringer("mint", req.Mint),
				zap.Stringer("holder", req.To),
				zap.Stringer("expected", req.From),
				zap.Error(err))
		}
	}
}

func (tx *txn) recordFee(kind string, lamports uint64) {
	tx.fees = append(tx.fees, feeRecord{kind: kind, lamports: lamports})
}

// pay moves lamports and records them under kind.
func (tx *txn) pay(from, to solanago.PublicKey, lamports uint64, kind string) error {
	if err := tx.bank.Transfer(tx.ctx, from, to, lamports); err != nil {
		return err
	}
	if kind != "" {
		tx.recordFee(kind, lamports)
	}
	return nil
}

// Airdrop credits lamports to a wallet. Simulations and tests fund takers and
// owners with it.
func (e *Engine) Airdrop(ctx context.Context, to solanago.PublicKey, lamports uint64) error {
	return e.run(ctx, "airdrop", func(tx *txn) error {
		return tx.bank.Credit(ctx, to, lamports)
	}, zap.Stringer("to", to))
}

// inspect runs fn against committed state. Whatever fn stages is dropped.
func (e *Engine) inspect(ctx context.Context, fn func(tx *txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	view := state.NewView(e.db)
	defer view.Discard()
	return fn(&txn{ctx: ctx, e: e, view: view, bank: state.NewBank(view), now: e.now()})
}

// Balance returns the committed lamports of address.
func (e *Engine) Balance(ctx context.Context, address solanago.PublicKey) (uint64, error) {
	var balance uint64
	err := e.inspect(ctx, func(tx *txn) error {
		var err error
		balance, err = tx.bank.Balance(ctx, address)
		return err
	})
	return balance, err
}
