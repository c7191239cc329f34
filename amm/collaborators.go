package amm

import (
	"context"
	"fmt"
	"sync"

	solanago "github.com/gagliardetto/solana-go"

	ammmath "github.com/krazyTry/nft-amm-go/amm/math"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

// AssetTransferRequest moves one NFT between custodies. CreatorsFee is the
// royalty the engine paid alongside the move, for standards that must see it.
type AssetTransferRequest struct {
	Mint        solanago.PublicKey
	From        solanago.PublicKey
	To          solanago.PublicKey
	Authority   solanago.PublicKey
	Royalty     shared.RoyaltyInfo
	CreatorsFee uint64
}

// AssetTransfer moves NFTs for whatever token standard they use.
type AssetTransfer interface {
	Transfer(ctx context.Context, req AssetTransferRequest) error
}

// MemoryAssets is an AssetTransfer that tracks custody in memory.
type MemoryAssets struct {
	mu     sync.Mutex
	owners map[solanago.PublicKey]solanago.PublicKey
}

func NewMemoryAssets() *MemoryAssets {
	return &MemoryAssets{owners: make(map[solanago.PublicKey]solanago.PublicKey)}
}

// Mint records owner as the holder of a new mint.
func (m *MemoryAssets) Mint(mint, owner solanago.PublicKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[mint] = owner
}

// OwnerOf returns the custody holding mint.
func (m *MemoryAssets) OwnerOf(mint solanago.PublicKey) (solanago.PublicKey, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[mint]
	return owner, ok
}

func (m *MemoryAssets) Transfer(ctx context.Context, req AssetTransferRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[req.Mint]
	if !ok {
		return fmt.Errorf("unknown mint %s: %w", req.Mint, shared.ErrWrongMint)
	}
	if !owner.Equals(req.From) {
		return fmt.Errorf("mint %s held by %s, not %s: %w", req.Mint, owner, req.From, shared.ErrWrongOwner)
	}
	m.owners[req.Mint] = req.To
	return nil
}

// WhitelistVerifier decides whether mint belongs to whitelist.
type WhitelistVerifier interface {
	Verify(ctx context.Context, whitelist, mint solanago.PublicKey, proof [][]byte) (bool, error)
}

// AllowAllWhitelist accepts every mint.
type AllowAllWhitelist struct{}

func (AllowAllWhitelist) Verify(context.Context, solanago.PublicKey, solanago.PublicKey, [][]byte) (bool, error) {
	return true, nil
}

// WhitelistFunc adapts a plain function to WhitelistVerifier.
type WhitelistFunc func(ctx context.Context, whitelist, mint solanago.PublicKey, proof [][]byte) (bool, error)

func (f WhitelistFunc) Verify(ctx context.Context, whitelist, mint solanago.PublicKey, proof [][]byte) (bool, error) {
	return f(ctx, whitelist, mint, proof)
}

// Capability is presented by a cooperating program withdrawing from a
// shared escrow on its owner's behalf. StateAccount is the program's own
// derived account that signed the request.
type Capability struct {
	Program      solanago.PublicKey
	StateAccount solanago.PublicKey
}

// CapabilityVerifier decides whether a capability may spend escrow.
type CapabilityVerifier interface {
	Verify(ctx context.Context, capability Capability, escrow *shared.SharedEscrow) error
}

// AllowList trusts capabilities issued by a fixed set of programs.
type AllowList struct {
	programs map[solanago.PublicKey]struct{}
}

func NewAllowList(programs ...solanago.PublicKey) *AllowList {
	a := &AllowList{programs: make(map[solanago.PublicKey]struct{}, len(programs))}
	for _, p := range programs {
		a.programs[p] = struct{}{}
	}
	return a
}

func (a *AllowList) Trusts(program solanago.PublicKey) bool {
	_, ok := a.programs[program]
	return ok
}

func (a *AllowList) Verify(ctx context.Context, capability Capability, escrow *shared.SharedEscrow) error {
	if !a.Trusts(capability.Program) || capability.StateAccount.IsZero() {
		return shared.ErrWrongAuthority
	}
	return nil
}

// AutoClosePolicy decides whether a pool should close itself after a trade.
// The engine never closes a pool holding NFTs or attached to an escrow,
// whatever the policy says.
type AutoClosePolicy interface {
	ShouldClose(pool *shared.Pool, side shared.TakerSide) bool
}

// DefaultAutoClose closes an NFT pool that sold its last NFT and a directly
// funded token pool that can no longer pay its next bid.
type DefaultAutoClose struct{}

func (DefaultAutoClose) ShouldClose(pool *shared.Pool, side shared.TakerSide) bool {
	switch pool.Config.PoolType {
	case shared.PoolTypeNFT:
		return side == shared.TakerSideBuy && pool.NftsHeld == 0
	case shared.PoolTypeToken:
		if side != shared.TakerSideSell || pool.IsOnSharedEscrow() {
			return false
		}
		next, err := ammmath.CurrentPrice(pool.Config, pool.PriceOffset, shared.TakerSideSell)
		return err != nil || pool.Amount < next
	}
	return false
}

// NeverAutoClose keeps every pool open.
type NeverAutoClose struct{}

func (NeverAutoClose) ShouldClose(*shared.Pool, shared.TakerSide) bool { return false }
