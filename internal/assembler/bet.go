package assembler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"market-agent/internal/program"
	"market-agent/internal/quote"
	"market-agent/internal/rules"
)

// PlaceBetParams are the validated inputs for a place_bet action.
type PlaceBetParams struct {
	MarketID      uint64
	Side          program.Side
	Amount        uint64
	Bettor        solana.PublicKey
	AffiliateCode string
	InviteProof   string
	// Now defaults to the wall clock; tests pin it.
	Now int64
}

// PlaceBet assembles an unsigned place_bet transaction against the current
// market snapshot, with the quote the bettor would lock in if the snapshot
// holds. Races between snapshot and submission are expected; the advisory
// simulation is the tolerance mechanism, not a lock.
func (a *Assembler) PlaceBet(ctx context.Context, p PlaceBetParams) (*Assembled, error) {
	if p.Now == 0 {
		p.Now = time.Now().Unix()
	}

	market, err := a.snapshots.GetMarket(ctx, p.MarketID)
	if err != nil {
		return nil, err
	}

	whitelisted := false
	if market.AccessGate == program.GateWhitelist {
		whitelisted, err = a.snapshots.IsWhitelisted(ctx, p.MarketID, p.Bettor)
		if err != nil {
			return nil, err
		}
	}

	verdict := rules.ValidateBet(rules.BetInput{
		Amount:         p.Amount,
		Status:         market.Status,
		CloseTs:        market.CloseTs,
		AccessGate:     market.AccessGate,
		Layer:          market.Layer,
		Whitelisted:    whitelisted,
		InviteVerified: p.InviteProof != "",
		Now:            p.Now,
	}, a.cfg.Bounds, a.cfg.Timing)
	if !verdict.OK {
		return nil, ruleError(verdict)
	}

	// Frozen rates from the market account, never the live table.
	q, err := quote.Hypothetical(p.Amount, market.PoolFor(p.Side), market.TotalPool(), market.PlatformFeeBps)
	if err != nil && !errors.Is(err, quote.ErrEmptyPool) {
		return nil, err
	}

	marketPDA, _, err := program.MarketAddress(a.cfg.ProgramID, p.MarketID)
	if err != nil {
		return nil, err
	}
	positionPDA, _, err := program.PositionAddress(a.cfg.ProgramID, p.MarketID, p.Bettor)
	if err != nil {
		return nil, err
	}
	configPDA, _, err := program.ConfigAddress(a.cfg.ProgramID)
	if err != nil {
		return nil, err
	}

	addresses := map[string]string{
		"market":   marketPDA.String(),
		"position": positionPDA.String(),
		"config":   configPDA.String(),
	}

	accounts := []*solana.AccountMeta{
		writable(marketPDA),
		writable(positionPDA),
		signerWritable(p.Bettor),
	}

	if p.AffiliateCode != "" {
		affiliate, err := a.snapshots.GetAffiliate(ctx, p.AffiliateCode)
		if err != nil {
			return nil, fmt.Errorf("affiliate code %q: %w", p.AffiliateCode, err)
		}
		if !affiliate.Active {
			return nil, inputError("affiliate code %q is inactive", p.AffiliateCode)
		}
		affiliatePDA, _, err := program.AffiliateAddress(a.cfg.ProgramID, p.AffiliateCode)
		if err != nil {
			return nil, err
		}
		addresses["affiliate"] = affiliatePDA.String()
		accounts = append(accounts, writable(affiliatePDA))
	}

	accounts = append(accounts,
		readonly(configPDA),
		readonly(solana.SystemProgramID),
	)

	data := program.PlaceBetData(p.Side, p.Amount)

	tx, encoded, err := a.buildTransaction(ctx, p.Bettor, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            program.InstrPlaceBet,
		TransactionBase64: encoded,
		Addresses:         addresses,
		Quote:             &q,
	}
	return a.finish(ctx, out, tx)
}

// PlaceRaceBetParams are the validated inputs for a place_race_bet action.
type PlaceRaceBetParams struct {
	MarketID      uint64
	Outcome       uint8
	Amount        uint64
	Bettor        solana.PublicKey
	AffiliateCode string
	InviteProof   string
	Now           int64
}

// PlaceRaceBet assembles an unsigned place_race_bet transaction.
func (a *Assembler) PlaceRaceBet(ctx context.Context, p PlaceRaceBetParams) (*Assembled, error) {
	if p.Now == 0 {
		p.Now = time.Now().Unix()
	}

	market, err := a.snapshots.GetRaceMarket(ctx, p.MarketID)
	if err != nil {
		return nil, err
	}
	if p.Outcome >= market.OutcomeCount {
		return nil, inputError("outcome %d out of range, market has %d outcomes", p.Outcome, market.OutcomeCount)
	}

	whitelisted := false
	if market.AccessGate == program.GateWhitelist {
		whitelisted, err = a.snapshots.IsWhitelisted(ctx, p.MarketID, p.Bettor)
		if err != nil {
			return nil, err
		}
	}

	verdict := rules.ValidateBet(rules.BetInput{
		Amount:         p.Amount,
		Status:         market.Status,
		CloseTs:        market.CloseTs,
		AccessGate:     market.AccessGate,
		Layer:          market.Layer,
		Whitelisted:    whitelisted,
		InviteVerified: p.InviteProof != "",
		Now:            p.Now,
	}, a.cfg.Bounds, a.cfg.Timing)
	if !verdict.OK {
		return nil, ruleError(verdict)
	}

	q, err := quote.Hypothetical(p.Amount, market.Pools[p.Outcome], market.TotalPool, market.PlatformFeeBps)
	if err != nil && !errors.Is(err, quote.ErrEmptyPool) {
		return nil, err
	}

	marketPDA, _, err := program.RaceMarketAddress(a.cfg.ProgramID, p.MarketID)
	if err != nil {
		return nil, err
	}
	positionPDA, _, err := program.PositionAddress(a.cfg.ProgramID, p.MarketID, p.Bettor)
	if err != nil {
		return nil, err
	}
	configPDA, _, err := program.ConfigAddress(a.cfg.ProgramID)
	if err != nil {
		return nil, err
	}

	addresses := map[string]string{
		"market":   marketPDA.String(),
		"position": positionPDA.String(),
		"config":   configPDA.String(),
	}

	accounts := []*solana.AccountMeta{
		writable(marketPDA),
		writable(positionPDA),
		signerWritable(p.Bettor),
	}

	if p.AffiliateCode != "" {
		affiliate, err := a.snapshots.GetAffiliate(ctx, p.AffiliateCode)
		if err != nil {
			return nil, fmt.Errorf("affiliate code %q: %w", p.AffiliateCode, err)
		}
		if !affiliate.Active {
			return nil, inputError("affiliate code %q is inactive", p.AffiliateCode)
		}
		affiliatePDA, _, err := program.AffiliateAddress(a.cfg.ProgramID, p.AffiliateCode)
		if err != nil {
			return nil, err
		}
		addresses["affiliate"] = affiliatePDA.String()
		accounts = append(accounts, writable(affiliatePDA))
	}

	accounts = append(accounts,
		readonly(configPDA),
		readonly(solana.SystemProgramID),
	)

	data := program.PlaceRaceBetData(p.Outcome, p.Amount)

	tx, encoded, err := a.buildTransaction(ctx, p.Bettor, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            program.InstrPlaceRaceBet,
		TransactionBase64: encoded,
		Addresses:         addresses,
		Quote:             &q,
	}
	return a.finish(ctx, out, tx)
}
