package helpers

import (
	"encoding/binary"

	solanago "github.com/gagliardetto/solana-go"
)

var seed = struct {
	Pool          []byte
	NftReceipt    []byte
	SharedEscrow  []byte
	SingleListing []byte
	FeeVault      []byte
}{
	Pool:          []byte("pool"),
	NftReceipt:    []byte("nft_receipt"),
	SharedEscrow:  []byte("shared_escrow"),
	SingleListing: []byte("single_listing"),
	FeeVault:      []byte("fee_vault"),
}

func DerivePoolAddress(programID, owner solanago.PublicKey, poolID [32]byte) (solanago.PublicKey, uint8, error) {
	return solanago.FindProgramAddress([][]byte{seed.Pool, owner.Bytes(), poolID[:]}, programID)
}

// DeriveNftReceiptAddress derives the receipt of mint escrowed by pool.
// Seed order matches on-chain: ["nft_receipt", mint, pool]
func DeriveNftReceiptAddress(programID, mint, pool solanago.PublicKey) (solanago.PublicKey, uint8, error) {
	return solanago.FindProgramAddress([][]byte{seed.NftReceipt, mint.Bytes(), pool.Bytes()}, programID)
}

func DeriveSharedEscrowAddress(programID, owner solanago.PublicKey, nr uint16) (solanago.PublicKey, uint8, error) {
	var nrBytes [2]byte
	binary.LittleEndian.PutUint16(nrBytes[:], nr)
	return solanago.FindProgramAddress([][]byte{seed.SharedEscrow, owner.Bytes(), nrBytes[:]}, programID)
}

func DeriveSingleListingAddress(programID, mint solanago.PublicKey) (solanago.PublicKey, uint8, error) {
	return solanago.FindProgramAddress([][]byte{seed.SingleListing, mint.Bytes()}, programID)
}

func DeriveFeeVaultAddress(programID solanago.PublicKey) solanago.PublicKey {
	pub, _, _ := solanago.FindProgramAddress([][]byte{seed.FeeVault}, programID)
	return pub
}
