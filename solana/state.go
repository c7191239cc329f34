package solana

import (
	"context"
	"errors"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

var ErrAccountNotFound = errors.New("account not found")

// ProgramAccount is a decoded account together with its address.
type ProgramAccount[T any] struct {
	Pubkey  solanago.PublicKey
	Account *T
}

// StateService reads deployed AMM accounts from a cluster.
type StateService struct {
	RPC        *rpc.Client
	ProgramID  solanago.PublicKey
	Commitment rpc.CommitmentType
}

func NewStateService(rpcClient *rpc.Client, programID solanago.PublicKey, commitment rpc.CommitmentType) *StateService {
	return &StateService{RPC: rpcClient, ProgramID: programID, Commitment: commitment}
}

func (s *StateService) accountData(ctx context.Context, address solanago.PublicKey) ([]byte, error) {
	acc, err := s.RPC.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{Commitment: s.Commitment})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", address, ErrAccountNotFound)
	}
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.Value == nil {
		return nil, fmt.Errorf("%s: %w", address, ErrAccountNotFound)
	}
	return acc.Value.Data.GetBinary(), nil
}

func (s *StateService) GetPool(ctx context.Context, poolAddress solanago.PublicKey) (*shared.Pool, error) {
	data, err := s.accountData(ctx, poolAddress)
	if err != nil {
		return nil, err
	}
	return helpers.DecodePool(data)
}

func (s *StateService) GetSharedEscrow(ctx context.Context, escrowAddress solanago.PublicKey) (*shared.SharedEscrow, error) {
	data, err := s.accountData(ctx, escrowAddress)
	if err != nil {
		return nil, err
	}
	return helpers.DecodeSharedEscrow(data)
}

func (s *StateService) GetSingleListing(ctx context.Context, mint solanago.PublicKey) (*shared.SingleListing, error) {
	address, _, err := helpers.DeriveSingleListingAddress(s.ProgramID, mint)
	if err != nil {
		return nil, err
	}
	data, err := s.accountData(ctx, address)
	if err != nil {
		return nil, err
	}
	return helpers.DecodeSingleListing(data)
}

// GetPoolsByOwner lists every pool of owner.
func (s *StateService) GetPoolsByOwner(ctx context.Context, owner solanago.PublicKey) ([]ProgramAccount[shared.Pool], error) {
	filters := helpers.CreateProgramAccountFilter(shared.AccountKeyPool, &helpers.Filter{
		Owner:  owner,
		Offset: helpers.ComputeStructOffset(new(shared.Pool), "Owner"),
	})
	return getProgramAccounts(ctx, s, filters, helpers.DecodePool)
}

// GetPoolsByWhitelist lists every pool gated by whitelist.
func (s *StateService) GetPoolsByWhitelist(ctx context.Context, whitelist solanago.PublicKey) ([]ProgramAccount[shared.Pool], error) {
	filters := helpers.CreateProgramAccountFilter(shared.AccountKeyPool, &helpers.Filter{
		Owner:  whitelist,
		Offset: helpers.ComputeStructOffset(new(shared.Pool), "Whitelist"),
	})
	return getProgramAccounts(ctx, s, filters, helpers.DecodePool)
}

// GetDepositReceipts lists the receipts of every NFT pool holds.
func (s *StateService) GetDepositReceipts(ctx context.Context, pool solanago.PublicKey) ([]ProgramAccount[shared.DepositReceipt], error) {
	filters := helpers.CreateProgramAccountFilter(shared.AccountKeyNftDepositRcpt, &helpers.Filter{
		Owner:  pool,
		Offset: helpers.ComputeStructOffset(new(shared.DepositReceipt), "Pool"),
	})
	return getProgramAccounts(ctx, s, filters, helpers.DecodeDepositReceipt)
}

// getProgramAccounts runs a filtered program account query. Accounts that
// fail to decode are skipped.
func getProgramAccounts[T any](ctx context.Context, s *StateService, filters []rpc.RPCFilter, decode func([]byte) (*T, error)) ([]ProgramAccount[T], error) {
	accounts, err := s.RPC.GetProgramAccountsWithOpts(ctx, s.ProgramID, &rpc.GetProgramAccountsOpts{
		Commitment: s.Commitment,
		Encoding:   solanago.EncodingBase64,
		Filters:    filters,
	})
	if err != nil {
		return nil, err
	}
	out := make([]ProgramAccount[T], 0, len(accounts))
	for _, acc := range accounts {
		parsed, err := decode(acc.Account.Data.GetBinary())
		if err != nil {
			continue
		}
		out = append(out, ProgramAccount[T]{Pubkey: acc.Pubkey, Account: parsed})
	}
	return out, nil
}
