package assembler

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"market-agent/internal/program"
	"market-agent/internal/quote"
)

// ClaimParams are the validated inputs for a claim_winnings action.
type ClaimParams struct {
	MarketID uint64
	Claimer  solana.PublicKey
}

// ClaimWinnings assembles an unsigned claim_winnings transaction. The payout
// quote is computed from the snapshot pools frozen at close and the fee rates
// frozen at creation, the same basis the program settles on.
func (a *Assembler) ClaimWinnings(ctx context.Context, p ClaimParams) (*Assembled, error) {
	market, err := a.snapshots.GetMarket(ctx, p.MarketID)
	if err != nil {
		return nil, err
	}
	if market.Status != program.StatusResolved {
		return nil, inputError("market is %s, claiming requires RESOLVED", market.Status)
	}
	if market.WinningSide == nil {
		return nil, inputError("market is resolved but has no winning side recorded")
	}

	position, err := a.snapshots.GetPosition(ctx, p.MarketID, p.Claimer)
	if err != nil {
		return nil, err
	}
	if position.Claimed {
		return nil, inputError("position has already been claimed")
	}

	stake := position.AmountFor(*market.WinningSide)
	if stake == 0 {
		return nil, inputError("position holds no stake on the winning side %s", market.WinningSide)
	}

	q, err := quote.Payout(
		stake,
		market.SnapshotPoolFor(*market.WinningSide),
		market.SnapshotTotal(),
		market.PlatformFeeBps,
	)
	if err != nil {
		return nil, err
	}

	marketPDA, _, err := program.MarketAddress(a.cfg.ProgramID, p.MarketID)
	if err != nil {
		return nil, err
	}
	positionPDA, _, err := program.PositionAddress(a.cfg.ProgramID, p.MarketID, p.Claimer)
	if err != nil {
		return nil, err
	}
	profilePDA, _, err := program.CreatorProfileAddress(a.cfg.ProgramID, market.Creator)
	if err != nil {
		return nil, err
	}

	addresses := map[string]string{
		"market":          marketPDA.String(),
		"position":        positionPDA.String(),
		"creator_profile": profilePDA.String(),
	}

	accounts := []*solana.AccountMeta{
		writable(marketPDA),
		writable(positionPDA),
		signerWritable(p.Claimer),
		writable(a.cfg.PlatformWallet), // platform fee
		writable(profilePDA),           // creator fee accrual
	}

	// The affiliate captured at bet time, never altered afterward, earns its
	// cut at claim time.
	if position.Affiliate != nil {
		addresses["affiliate_owner"] = position.Affiliate.String()
		accounts = append(accounts, writable(*position.Affiliate))
	}

	data := program.ClaimWinningsData()

	tx, encoded, err := a.buildTransaction(ctx, p.Claimer, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            program.InstrClaimWinnings,
		TransactionBase64: encoded,
		Addresses:         addresses,
		Quote:             &q,
	}
	return a.finish(ctx, out, tx)
}
