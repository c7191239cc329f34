package helpers

import (
	"bytes"
	"errors"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/krazyTry/nft-amm-go/amm/shared"
)

func TestDiscriminator(t *testing.T) {
	cases := map[string][]byte{
		shared.AccountKeyPool:           {241, 154, 109, 4, 17, 177, 109, 188},
		shared.AccountKeyNftDepositRcpt: {206, 255, 132, 254, 67, 78, 62, 96},
		shared.AccountKeySharedEscrow:   {224, 55, 20, 31, 220, 116, 183, 194},
		shared.AccountKeySingleListing:  {14, 114, 212, 140, 24, 134, 31, 24},
	}
	for name, want := range cases {
		if got := Discriminator(name); !bytes.Equal(got, want) {
			t.Fatalf("Discriminator(%s) = %v, want %v", name, got, want)
		}
	}
}

func TestPoolCodec(t *testing.T) {
	pool := &shared.Pool{
		Version:     shared.CurrentPoolVersion,
		Bump:        [1]uint8{254},
		CreatedAt:   1_700_000_000,
		UpdatedAt:   1_700_000_100,
		Expiry:      1_800_000_000,
		Owner:       solanago.NewWallet().PublicKey(),
		Amount:      42,
		PriceOffset: -7,
		NftsHeld:    3,
		Stats:       shared.PoolStats{TakerSellCount: 9, TakerBuyCount: 2, AccumulatedMmProfit: 77},
		Config: shared.PoolConfig{
			PoolType:      shared.PoolTypeTrade,
			CurveType:     shared.CurveTypeExponential,
			StartingPrice: 1_000_000,
			Delta:         250,
			MmFeeBps:      shared.SomeU16(100),
		},
	}
	pool.PoolId[0] = 1

	data, err := EncodePool(pool)
	if err != nil {
		t.Fatal(err)
	}
	if !IsAccount(shared.AccountKeyPool, data) {
		t.Fatal("encoded pool lacks its discriminator")
	}
	decoded, err := DecodePool(data)
	if err != nil {
		t.Fatal(err)
	}
	if *decoded != *pool {
		t.Fatalf("DecodePool() = %+v, want %+v", decoded, pool)
	}

	if _, err = DecodeSharedEscrow(data); !errors.Is(err, ErrDiscriminatorMismatch) {
		t.Fatalf("DecodeSharedEscrow(pool) error = %v", err)
	}
	if _, err = DecodePool(data[:4]); !errors.Is(err, ErrDiscriminatorMismatch) {
		t.Fatalf("DecodePool(short) error = %v", err)
	}
}

func TestComputeStructOffset(t *testing.T) {
	// discriminator + version + bump + pool id + three timestamps
	if got := ComputeStructOffset(new(shared.Pool), "Owner"); got != 66 {
		t.Fatalf("Owner offset = %d, want 66", got)
	}
	if got := ComputeStructOffset(new(shared.Pool), "Whitelist"); got != 98 {
		t.Fatalf("Whitelist offset = %d, want 98", got)
	}
	if got := ComputeStructOffset(new(shared.DepositReceipt), "Pool"); got != 41 {
		t.Fatalf("receipt Pool offset = %d, want 41", got)
	}

	owner := solanago.NewWallet().PublicKey()
	filters := CreateProgramAccountFilter(shared.AccountKeyPool, &Filter{Owner: owner, Offset: 66})
	if len(filters) != 2 || filters[1].Memcmp.Offset != 66 {
		t.Fatalf("unexpected filters %+v", filters)
	}
}
