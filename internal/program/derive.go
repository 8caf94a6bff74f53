package program

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PDA seed tags. These must match the on-chain program byte for byte.
const (
	seedMarket     = "market"
	seedRaceMarket = "race_market"
	seedPosition   = "position"
	seedAffiliate  = "affiliate"
	seedCreator    = "creator"
	seedWhitelist  = "whitelist"
	seedConfig     = "config"
)

func u64LE(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// MarketAddress derives the PDA for a boolean market account.
// The program identity is an explicit parameter: a program upgrade that changes
// the ID changes every derived address, and callers must opt into that.
func MarketAddress(programID solana.PublicKey, marketID uint64) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(seedMarket),
		u64LE(marketID),
	}

	pda, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive market PDA: %w", err)
	}
	return pda, bump, nil
}

// RaceMarketAddress derives the PDA for a multi-outcome market account.
func RaceMarketAddress(programID solana.PublicKey, marketID uint64) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(seedRaceMarket),
		u64LE(marketID),
	}

	pda, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive race market PDA: %w", err)
	}
	return pda, bump, nil
}

// PositionAddress derives the PDA holding a user's stake in a market.
func PositionAddress(programID solana.PublicKey, marketID uint64, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(seedPosition),
		u64LE(marketID),
		owner.Bytes(),
	}

	pda, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive position PDA: %w", err)
	}
	return pda, bump, nil
}

// AffiliateAddress derives the PDA for an affiliate code. Seeding by the code
// itself is what enforces global code uniqueness: two registrations of the same
// code collide on the same address and the second one fails on-chain.
func AffiliateAddress(programID solana.PublicKey, code string) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(seedAffiliate),
		[]byte(code),
	}

	pda, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive affiliate PDA: %w", err)
	}
	return pda, bump, nil
}

// CreatorProfileAddress derives the PDA for a creator profile account.
func CreatorProfileAddress(programID solana.PublicKey, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(seedCreator),
		owner.Bytes(),
	}

	pda, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive creator profile PDA: %w", err)
	}
	return pda, bump, nil
}

// WhitelistAddress derives the PDA marking a user as whitelisted for a market.
func WhitelistAddress(programID solana.PublicKey, marketID uint64, user solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(seedWhitelist),
		u64LE(marketID),
		user.Bytes(),
	}

	pda, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive whitelist PDA: %w", err)
	}
	return pda, bump, nil
}

// ConfigAddress derives the singleton global config PDA.
func ConfigAddress(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(seedConfig),
	}

	pda, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive config PDA: %w", err)
	}
	return pda, bump, nil
}
