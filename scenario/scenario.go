// Package scenario replays a JSON script of AMM operations against an engine.
//
// A script names its actors instead of spelling out keys:
//
//	{
//	  "start_time": 1700000000,
//	  "accounts": {"alice": "10", "bob": "5"},
//	  "steps": [
//	    {"op": "create_pool", "owner": "alice", "pool": "p1",
//	     "config": {"type": "trade", "curve": "linear", "starting_price": "1", "delta": "0.01", "mm_fee_bps": 250}},
//	    {"op": "deposit_sol", "owner": "alice", "pool": "p1", "amount": "2"},
//	    {"op": "sell", "seller": "bob", "pool": "p1", "mint": "m1", "min": "0.9"},
//	    {"op": "withdraw_sol", "owner": "alice", "pool": "p1", "amount": "100", "error": "PoolKeepAlive"}
//	  ]
//	}
//
// Amounts written as strings are SOL, bare numbers are lamports. A step with
// "error" must fail with that program error.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/krazyTry/nft-amm-go/amm"
	"github.com/krazyTry/nft-amm-go/amm/helpers"
	"github.com/krazyTry/nft-amm-go/amm/shared"
	"github.com/krazyTry/nft-amm-go/store"
)

const DefaultStartTime int64 = 1_700_000_000

var ErrInvalidScript = errors.New("invalid scenario script")

type StepResult struct {
	Index   int
	Op      string
	Address string     `json:",omitempty"`
	Quote   *amm.Quote `json:",omitempty"`
	Error   string     `json:",omitempty"`
}

type Report struct {
	Steps []StepResult
	// Balances holds the lamports of every named account, pool and escrow.
	Balances map[string]uint64
}

// Runner owns the engine's clock and NFT custody so scripts can mint assets
// and move time.
type Runner struct {
	engine *amm.Engine
	assets *amm.MemoryAssets
	logger *zap.Logger
	now    int64
	keys   map[string]solanago.PublicKey
}

func NewRunner(db store.DB, logger *zap.Logger, opts ...amm.Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		assets: amm.NewMemoryAssets(),
		logger: logger,
		now:    DefaultStartTime,
		keys:   make(map[string]solanago.PublicKey),
	}
	opts = append(opts,
		amm.WithAssetTransfer(r.assets),
		amm.WithNowFunc(func() int64 { return r.now }),
		amm.WithLogger(logger),
	)
	r.engine = amm.NewEngine(db, opts...)
	return r
}

func (r *Runner) Engine() *amm.Engine { return r.engine }

// Key returns the public key standing for name, minting a fresh one the first
// time name is seen.
func (r *Runner) Key(name string) solanago.PublicKey {
	if key, ok := r.keys[name]; ok {
		return key
	}
	key := solanago.NewWallet().PublicKey()
	r.keys[name] = key
	return key
}

// Run executes script and stops at the first step whose outcome differs from
// what the script expects.
func (r *Runner) Run(ctx context.Context, script []byte) (*Report, error) {
	if !gjson.ValidBytes(script) {
		return nil, fmt.Errorf("%w: malformed json", ErrInvalidScript)
	}
	doc := gjson.ParseBytes(script)
	var err error
	if r.now, err = intField(doc, "start_time", r.now); err != nil {
		return nil, err
	}
	doc.Get("accounts").ForEach(func(name, amount gjson.Result) bool {
		var lamports uint64
		if lamports, err = parseAmount(amount); err != nil {
			err = fmt.Errorf("%w: account %s: %v", ErrInvalidScript, name.String(), err)
			return false
		}
		err = r.engine.Airdrop(ctx, r.Key(name.String()), lamports)
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for i, step := range doc.Get("steps").Array() {
		res := StepResult{Index: i, Op: step.Get("op").String()}
		stepErr := r.step(ctx, step, &res)
		expected := step.Get("error").String()

		switch {
		case stepErr != nil && errors.Is(stepErr, ErrInvalidScript):
			return report, fmt.Errorf("step %d (%s): %w", i, res.Op, stepErr)
		case stepErr != nil:
			res.Error = errorName(stepErr)
			if res.Error != expected {
				return report, fmt.Errorf("step %d (%s): %w", i, res.Op, stepErr)
			}
			r.logger.Info("step failed as expected", zap.Int("step", i), zap.String("op", res.Op), zap.String("error", res.Error))
		case expected != "":
			return report, fmt.Errorf("step %d (%s): expected %s, got success", i, res.Op, expected)
		default:
			r.logger.Debug("step", zap.Int("step", i), zap.String("op", res.Op))
		}
		report.Steps = append(report.Steps, res)
	}

	if report.Balances, err = r.balances(ctx); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Runner) balances(ctx context.Context) (map[string]uint64, error) {
	names := make([]string, 0, len(r.keys))
	for name := range r.keys {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]uint64, len(names))
	for _, name := range names {
		lamports, err := r.engine.Balance(ctx, r.keys[name])
		if err != nil {
			return nil, err
		}
		if lamports > 0 {
			out[name] = lamports
		}
	}
	return out, nil
}

func errorName(err error) string {
	var e *shared.Error
	if errors.As(err, &e) {
		return e.Name
	}
	return err.Error()
}

func (r *Runner) step(ctx context.Context, step gjson.Result, res *StepResult) error {
	e := r.engine
	switch res.Op {
	case "airdrop":
		lamports, err := amountField(step, "amount")
		if err != nil {
			return err
		}
		return e.Airdrop(ctx, r.key(step, "to"), lamports)

	case "advance":
		seconds, err := intField(step, "seconds", 0)
		if err != nil {
			return err
		}
		r.now += seconds
		return nil

	case "mint":
		mint := r.key(step, "mint")
		r.assets.Mint(mint, r.key(step, "owner"))
		res.Address = mint.String()
		return nil

	case "create_pool":
		config, err := parsePoolConfig(step.Get("config"))
		if err != nil {
			return err
		}
		name := step.Get("pool").String()
		if name == "" {
			return fmt.Errorf("%w: create_pool needs a pool name", ErrInvalidScript)
		}
		var poolID [32]byte
		copy(poolID[:], name)
		maxSells, err := uintField(step, "max_taker_sell_count", 32)
		if err != nil {
			return err
		}
		expiry, err := intField(step, "expiry", 0)
		if err != nil {
			return err
		}
		address, err := e.CreatePool(ctx, amm.CreatePoolParams{
			Owner:             r.key(step, "owner"),
			PoolID:            poolID,
			Config:            config,
			Whitelist:         r.optKey(step, "whitelist"),
			Cosigner:          r.optKey(step, "cosigner"),
			MakerBroker:       r.optKey(step, "maker_broker"),
			MaxTakerSellCount: uint32(maxSells),
			Expiry:            expiry,
		})
		if err != nil {
			return err
		}
		r.keys[name] = address
		res.Address = address.String()
		return nil

	case "edit_pool":
		params := amm.EditPoolParams{
			Owner:            r.key(step, "owner"),
			Pool:             r.key(step, "pool"),
			ResetPriceOffset: step.Get("reset_price_offset").Bool(),
		}
		if c := step.Get("config"); c.Exists() {
			config, err := parsePoolConfig(c)
			if err != nil {
				return err
			}
			params.Config = &config
		}
		if step.Get("max_taker_sell_count").Exists() {
			n, err := uintField(step, "max_taker_sell_count", 32)
			if err != nil {
				return err
			}
			maxSells := uint32(n)
			params.MaxTakerSellCount = &maxSells
		}
		if step.Get("expiry").Exists() {
			expiry, err := intField(step, "expiry", 0)
			if err != nil {
				return err
			}
			params.Expiry = &expiry
		}
		return e.EditPool(ctx, params)

	case "close_pool":
		return e.ClosePool(ctx, r.key(step, "owner"), r.key(step, "pool"))

	case "close_expired_pool":
		return e.CloseExpiredPool(ctx, r.key(step, "pool"), r.key(step, "rent_destination"))

	case "deposit_sol", "withdraw_sol", "withdraw_mm_fee":
		lamports, err := amountField(step, "amount")
		if err != nil {
			return err
		}
		owner, pool := r.key(step, "owner"), r.key(step, "pool")
		switch res.Op {
		case "deposit_sol":
			return e.DepositSol(ctx, owner, pool, lamports)
		case "withdraw_sol":
			return e.WithdrawSol(ctx, owner, pool, lamports)
		}
		return e.WithdrawMmFee(ctx, owner, pool, lamports)

	case "deposit_nft":
		receipt, err := e.DepositNft(ctx, amm.DepositNftParams{
			Owner:     r.key(step, "owner"),
			Pool:      r.key(step, "pool"),
			Mint:      r.key(step, "mint"),
			Whitelist: r.optKey(step, "whitelist"),
		})
		if err != nil {
			return err
		}
		res.Address = receipt.String()
		return nil

	case "withdraw_nft":
		return e.WithdrawNft(ctx, amm.WithdrawNftParams{
			Owner: r.key(step, "owner"),
			Pool:  r.key(step, "pool"),
			Mint:  r.key(step, "mint"),
		})

	case "buy":
		maxAmount, err := amountField(step, "max")
		if err != nil {
			return err
		}
		royalty, err := r.parseRoyalty(step.Get("royalty"))
		if err != nil {
			return err
		}
		q, err := e.BuyNft(ctx, amm.TakerBuyParams{
			Buyer:        r.key(step, "buyer"),
			Pool:         r.key(step, "pool"),
			Mint:         r.key(step, "mint"),
			MaxAmount:    maxAmount,
			TakerBroker:  r.optKey(step, "taker_broker"),
			SharedEscrow: r.optKey(step, "shared_escrow"),
			Royalty:      royalty,
		})
		if err != nil {
			return err
		}
		res.Quote = &q
		return nil

	case "sell":
		minPrice, err := amountField(step, "min")
		if err != nil {
			return err
		}
		royalty, err := r.parseRoyalty(step.Get("royalty"))
		if err != nil {
			return err
		}
		q, err := e.SellNft(ctx, amm.TakerSellParams{
			Seller:       r.key(step, "seller"),
			Pool:         r.key(step, "pool"),
			Mint:         r.key(step, "mint"),
			MinPrice:     minPrice,
			TakerBroker:  r.optKey(step, "taker_broker"),
			SharedEscrow: r.optKey(step, "shared_escrow"),
			Cosigner:     r.optKey(step, "cosigner"),
			Whitelist:    r.optKey(step, "whitelist"),
			Royalty:      royalty,
		})
		if err != nil {
			return err
		}
		res.Quote = &q
		return nil

	case "create_shared_escrow":
		name := step.Get("escrow").String()
		if name == "" {
			return fmt.Errorf("%w: create_shared_escrow needs an escrow name", ErrInvalidScript)
		}
		var label [32]byte
		copy(label[:], name)
		nr, err := uintField(step, "nr", 16)
		if err != nil {
			return err
		}
		address, err := e.CreateSharedEscrow(ctx, r.key(step, "owner"), uint16(nr), label)
		if err != nil {
			return err
		}
		r.keys[name] = address
		res.Address = address.String()
		return nil

	case "deposit_shared_escrow", "withdraw_shared_escrow":
		lamports, err := amountField(step, "amount")
		if err != nil {
			return err
		}
		if res.Op == "deposit_shared_escrow" {
			return e.DepositSharedEscrow(ctx, r.key(step, "owner"), r.key(step, "escrow"), lamports)
		}
		return e.WithdrawSharedEscrow(ctx, r.key(step, "owner"), r.key(step, "escrow"), lamports)

	case "close_shared_escrow":
		return e.CloseSharedEscrow(ctx, r.key(step, "owner"), r.key(step, "escrow"))

	case "attach":
		return e.AttachPoolToSharedEscrow(ctx, r.key(step, "owner"), r.key(step, "pool"), r.key(step, "escrow"))

	case "detach":
		lamports, err := amountField(step, "amount")
		if err != nil {
			return err
		}
		return e.DetachPoolFromSharedEscrow(ctx, r.key(step, "owner"), r.key(step, "pool"), r.key(step, "escrow"), lamports)

	case "list":
		price, err := amountField(step, "price")
		if err != nil {
			return err
		}
		address, err := e.List(ctx, amm.ListParams{
			Owner:       r.key(step, "owner"),
			Mint:        r.key(step, "mint"),
			Price:       price,
			MakerBroker: r.optKey(step, "maker_broker"),
		})
		if err != nil {
			return err
		}
		res.Address = address.String()
		return nil

	case "edit_listing":
		price, err := amountField(step, "price")
		if err != nil {
			return err
		}
		return e.EditListing(ctx, r.key(step, "owner"), r.key(step, "mint"), price)

	case "delist":
		return e.Delist(ctx, r.key(step, "owner"), r.key(step, "mint"))

	case "buy_listing":
		maxPrice, err := amountField(step, "max")
		if err != nil {
			return err
		}
		royalty, err := r.parseRoyalty(step.Get("royalty"))
		if err != nil {
			return err
		}
		_, err = e.BuyListing(ctx, amm.BuyListingParams{
			Buyer:       r.key(step, "buyer"),
			Mint:        r.key(step, "mint"),
			MaxPrice:    maxPrice,
			TakerBroker: r.optKey(step, "taker_broker"),
			Royalty:     royalty,
		})
		return err
	}
	return fmt.Errorf("%w: unknown op %q", ErrInvalidScript, res.Op)
}

func (r *Runner) key(step gjson.Result, field string) solanago.PublicKey {
	return r.Key(step.Get(field).String())
}

// optKey is the zero key when field is absent.
func (r *Runner) optKey(step gjson.Result, field string) solanago.PublicKey {
	v := step.Get(field)
	if !v.Exists() || v.String() == "" {
		return solanago.PublicKey{}
	}
	return r.Key(v.String())
}

func parseAmount(v gjson.Result) (uint64, error) {
	switch v.Type {
	case gjson.Number:
		return strconv.ParseUint(v.Raw, 10, 64)
	case gjson.String:
		return helpers.SolToLamports(v.String())
	}
	return 0, fmt.Errorf("not an amount: %s", v.Raw)
}

// uintField reads an optional whole number that must fit in bits.
// A missing field reads as zero.
func uintField(obj gjson.Result, field string, bits int) (uint64, error) {
	v := obj.Get(field)
	if !v.Exists() {
		return 0, nil
	}
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("%w: %s: not a number: %s", ErrInvalidScript, field, v.Raw)
	}
	n, err := strconv.ParseUint(v.Raw, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidScript, field, err)
	}
	return n, nil
}

// intField reads an optional signed whole number, returning def when
// the field is missing.
func intField(obj gjson.Result, field string, def int64) (int64, error) {
	v := obj.Get(field)
	if !v.Exists() {
		return def, nil
	}
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("%w: %s: not a number: %s", ErrInvalidScript, field, v.Raw)
	}
	n, err := strconv.ParseInt(v.Raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidScript, field, err)
	}
	return n, nil
}

func amountField(step gjson.Result, field string) (uint64, error) {
	v := step.Get(field)
	if !v.Exists() {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidScript, field)
	}
	lamports, err := parseAmount(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidScript, field, err)
	}
	return lamports, nil
}

func parsePoolConfig(v gjson.Result) (shared.PoolConfig, error) {
	var config shared.PoolConfig
	switch t := v.Get("type").String(); t {
	case "token":
		config.PoolType = shared.PoolTypeToken
	case "nft":
		config.PoolType = shared.PoolTypeNFT
	case "trade":
		config.PoolType = shared.PoolTypeTrade
	default:
		return config, fmt.Errorf("%w: pool type %q", ErrInvalidScript, t)
	}
	switch c := v.Get("curve").String(); c {
	case "", "linear":
		config.CurveType = shared.CurveTypeLinear
	case "exponential":
		config.CurveType = shared.CurveTypeExponential
	default:
		return config, fmt.Errorf("%w: curve %q", ErrInvalidScript, c)
	}

	var err error
	if config.StartingPrice, err = amountField(v, "starting_price"); err != nil {
		return config, err
	}
	if d := v.Get("delta"); d.Exists() {
		if config.Delta, err = parseAmount(d); err != nil {
			return config, fmt.Errorf("%w: delta: %v", ErrInvalidScript, err)
		}
	}
	if v.Get("mm_fee_bps").Exists() {
		bps, err := uintField(v, "mm_fee_bps", 16)
		if err != nil {
			return config, err
		}
		config.MmFeeBps = shared.SomeU16(uint16(bps))
	}
	config.MmCompoundFees = v.Get("compound").Bool()
	return config, nil
}

// parseRoyalty reads {"bps": 500, "enforced": true, "pct": 50,
// "creators": [{"name": "c1", "share": 100}]}.
func (r *Runner) parseRoyalty(v gjson.Result) (amm.RoyaltyParams, error) {
	var params amm.RoyaltyParams
	if !v.Exists() {
		return params, nil
	}
	bps, err := uintField(v, "bps", 16)
	if err != nil {
		return params, err
	}
	params.Info.SellerFeeBasisPoints = uint16(bps)
	params.Info.Enforced = v.Get("enforced").Bool()
	if v.Get("pct").Exists() {
		pct, err := uintField(v, "pct", 16)
		if err != nil {
			return params, err
		}
		p := uint16(pct)
		params.OptionalRoyaltyPct = &p
	}
	for _, c := range v.Get("creators").Array() {
		name := c.Get("name").String()
		if name == "" {
			return params, fmt.Errorf("%w: creator without a name", ErrInvalidScript)
		}
		share, err := uintField(c, "share", 8)
		if err != nil {
			return params, err
		}
		key := r.Key(name)
		params.Info.Creators = append(params.Info.Creators, shared.Creator{
			Address:  key,
			Share:    uint8(share),
			Verified: true,
		})
		params.Creators = append(params.Creators, key)
	}
	return params, nil
}
