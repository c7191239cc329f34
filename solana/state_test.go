package solana

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

// newRPCServer answers JSON-RPC calls with the result results[method].
func newRPCServer(t *testing.T, results map[string]string) *rpc.Client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		method := gjson.GetBytes(body, "method").String()
		result, ok := results[method]
		if !ok {
			t.Errorf("unexpected method %s", method)
			result = "null"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, gjson.GetBytes(body, "id").Raw, result)
	}))
	t.Cleanup(server.Close)
	return rpc.New(server.URL)
}

func accountJSON(data []byte) string {
	return fmt.Sprintf(`{"data":["%s","base64"],"executable":false,"lamports":4057680,"owner":"%s","rentEpoch":0}`,
		base64.StdEncoding.EncodeToString(data), helpers.NftAmmProgramID)
}

func TestStateServiceGetPool(t *testing.T) {
	pool := &shared.Pool{
		Version: shared.CurrentPoolVersion,
		Owner:   solanago.NewWallet().PublicKey(),
		Amount:  42,
		Config:  shared.PoolConfig{PoolType: shared.PoolTypeToken, StartingPrice: 10},
	}
	data, err := helpers.EncodePool(pool)
	require.NoError(t, err)

	client := newRPCServer(t, map[string]string{
		"getAccountInfo": fmt.Sprintf(`{"context":{"slot":1},"value":%s}`, accountJSON(data)),
	})
	s := NewStateService(client, helpers.NftAmmProgramID, rpc.CommitmentFinalized)

	got, err := s.GetPool(context.Background(), solanago.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, pool, got)
}

func TestStateServiceMissingAccount(t *testing.T) {
	client := newRPCServer(t, map[string]string{
		"getAccountInfo": `{"context":{"slot":1},"value":null}`,
	})
	s := NewStateService(client, helpers.NftAmmProgramID, rpc.CommitmentFinalized)

	_, err := s.GetSharedEscrow(context.Background(), solanago.NewWallet().PublicKey())
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestStateServiceGetPoolsByOwner(t *testing.T) {
	owner := solanago.NewWallet().PublicKey()
	pool, err := helpers.EncodePool(&shared.Pool{Version: shared.CurrentPoolVersion, Owner: owner})
	require.NoError(t, err)
	address := solanago.NewWallet().PublicKey()

	client := newRPCServer(t, map[string]string{
		"getProgramAccounts": fmt.Sprintf(`[{"pubkey":"%s","account":%s},{"pubkey":"%s","account":%s}]`,
			address, accountJSON(pool),
			solanago.NewWallet().PublicKey(), accountJSON([]byte{1, 2, 3})),
	})
	s := NewStateService(client, helpers.NftAmmProgramID, rpc.CommitmentFinalized)

	pools, err := s.GetPoolsByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, address, pools[0].Pubkey)
	assert.Equal(t, owner, pools[0].Account.Owner)
}

func TestRent(t *testing.T) {
	assert.Equal(t, uint64(1_844_400), DefaultRent{}.MinimumBalance(137))

	client := newRPCServer(t, map[string]string{
		"getMinimumBalanceForRentExemption": "1000",
	})
	r, err := NewRPCRent(context.Background(), client, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), r.MinimumBalance(50))
	assert.Equal(t, DefaultRent{}.MinimumBalance(51), r.MinimumBalance(51))
}

func TestClusterTime(t *testing.T) {
	client := newRPCServer(t, map[string]string{
		"getSlot":      "123",
		"getBlockTime": "1700000000",
	})
	now, err := ClusterTime(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000), now)
}
