package helpers

import (
	solanago "github.com/gagliardetto/solana-go"
)

// NftAmmProgramID is the deployed AMM program the derived addresses live under.
var NftAmmProgramID = solanago.MustPublicKeyFromBase58("TAMM6ub33ij1mbetoMyVBLeKY5iP41i4UPUJQGkhfsg")

// Cooperating programs trusted to withdraw from shared escrows by default.
var (
	TensorSwapProgramID  = solanago.MustPublicKeyFromBase58("TSWAPaqyCSx2KABk68Shruf4rp7CxcNi8hAsbdwmHbN")
	MarketplaceProgramID = solanago.MustPublicKeyFromBase58("TCMPhJdwDryooaGtiocG1u3xcYbRpiJzb283XfCZsDp")
	WhitelistProgramID   = solanago.MustPublicKeyFromBase58("TL1ST2iRBzuGTqLn1KXnGdSnEow62BzPnGiqyRXhWtW")

	DefaultTrustedPrograms = []solanago.PublicKey{TensorSwapProgramID, MarketplaceProgramID}
)

const (
	// LamportsPerSol is the number of lamports in one SOL.
	LamportsPerSol       = 1_000_000_000
	SolDecimals    int32 = 9
)
