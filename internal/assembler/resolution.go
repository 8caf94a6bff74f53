package assembler

import (
	"context"
	"crypto/sha256"
	"time"

	"github.com/gagliardetto/solana-go"

	"market-agent/internal/program"
)

// ProposeResolutionParams are the validated inputs for propose_resolution.
type ProposeResolutionParams struct {
	MarketID    uint64
	WinningSide program.Side
	Proposer    solana.PublicKey
}

// ProposeResolution assembles an unsigned propose_resolution transaction.
// The proposal opens the dispute window; it does not settle anything.
func (a *Assembler) ProposeResolution(ctx context.Context, p ProposeResolutionParams) (*Assembled, error) {
	market, err := a.snapshots.GetMarket(ctx, p.MarketID)
	if err != nil {
		return nil, err
	}
	if market.Status != program.StatusClosed {
		return nil, inputError("market is %s, proposing a resolution requires CLOSED", market.Status)
	}
	// Creator-resolved markets are the one mode this layer can fully check;
	// oracle and council authorities live in the config account and the
	// program enforces them.
	if market.ResolutionMode == program.ResolveByCreator && !p.Proposer.Equals(market.Creator) {
		return nil, inputError("market resolves by creator and the proposer is not the creator")
	}

	marketPDA, _, err := program.MarketAddress(a.cfg.ProgramID, p.MarketID)
	if err != nil {
		return nil, err
	}
	configPDA, _, err := program.ConfigAddress(a.cfg.ProgramID)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		writable(marketPDA),
		signerReadonly(p.Proposer),
		readonly(configPDA),
	}

	data := program.ProposeResolutionData(uint8(p.WinningSide))

	tx, encoded, err := a.buildTransaction(ctx, p.Proposer, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            program.InstrProposeResolution,
		TransactionBase64: encoded,
		Addresses: map[string]string{
			"market": marketPDA.String(),
			"config": configPDA.String(),
		},
	}
	return a.finish(ctx, out, tx)
}

// FinalizeResolutionParams are the validated inputs for finalize_resolution.
type FinalizeResolutionParams struct {
	MarketID  uint64
	Finalizer solana.PublicKey
	Now       int64
}

// FinalizeResolution assembles an unsigned finalize_resolution transaction
// once the dispute window has elapsed with no open dispute.
func (a *Assembler) FinalizeResolution(ctx context.Context, p FinalizeResolutionParams) (*Assembled, error) {
	if p.Now == 0 {
		p.Now = time.Now().Unix()
	}

	market, err := a.snapshots.GetMarket(ctx, p.MarketID)
	if err != nil {
		return nil, err
	}

	if verdict := a.cfg.Timing.ValidateFinalize(p.Now, market); !verdict.OK {
		return nil, ruleError(verdict)
	}

	marketPDA, _, err := program.MarketAddress(a.cfg.ProgramID, p.MarketID)
	if err != nil {
		return nil, err
	}
	configPDA, _, err := program.ConfigAddress(a.cfg.ProgramID)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		writable(marketPDA),
		signerReadonly(p.Finalizer),
		readonly(configPDA),
	}

	data := program.FinalizeResolutionData()

	tx, encoded, err := a.buildTransaction(ctx, p.Finalizer, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            program.InstrFinalizeResolution,
		TransactionBase64: encoded,
		Addresses: map[string]string{
			"market": marketPDA.String(),
			"config": configPDA.String(),
		},
	}
	return a.finish(ctx, out, tx)
}

// DisputeParams are the validated inputs for dispute_resolution.
type DisputeParams struct {
	MarketID uint64
	Reason   string
	Disputer solana.PublicKey
	Now      int64
}

// DisputeResolution assembles an unsigned dispute_resolution transaction.
// Only the hash of the reason goes on chain.
func (a *Assembler) DisputeResolution(ctx context.Context, p DisputeParams) (*Assembled, error) {
	if p.Now == 0 {
		p.Now = time.Now().Unix()
	}
	if p.Reason == "" {
		return nil, inputError("a dispute requires a reason")
	}

	market, err := a.snapshots.GetMarket(ctx, p.MarketID)
	if err != nil {
		return nil, err
	}
	if market.Status != program.StatusResolvedPending {
		return nil, inputError("market is %s, disputing requires RESOLVED_PENDING", market.Status)
	}
	if market.ResolutionProposedAt != nil {
		deadline := *market.ResolutionProposedAt + int64(a.cfg.Timing.DisputeWindow/time.Second)
		if p.Now >= deadline {
			return nil, inputError("dispute window has closed for this resolution")
		}
	}

	// Disputes require a stake in the market.
	position, err := a.snapshots.GetPosition(ctx, p.MarketID, p.Disputer)
	if err != nil {
		return nil, err
	}
	if position.Total() == 0 {
		return nil, inputError("disputer holds no stake in this market")
	}

	marketPDA, _, err := program.MarketAddress(a.cfg.ProgramID, p.MarketID)
	if err != nil {
		return nil, err
	}
	positionPDA, _, err := program.PositionAddress(a.cfg.ProgramID, p.MarketID, p.Disputer)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		writable(marketPDA),
		readonly(positionPDA),
		signerReadonly(p.Disputer),
	}

	data := program.DisputeResolutionData(sha256.Sum256([]byte(p.Reason)))

	tx, encoded, err := a.buildTransaction(ctx, p.Disputer, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            program.InstrDisputeResolution,
		TransactionBase64: encoded,
		Addresses: map[string]string{
			"market":   marketPDA.String(),
			"position": positionPDA.String(),
		},
	}
	return a.finish(ctx, out, tx)
}

// CancelParams are the validated inputs for cancel_market.
type CancelParams struct {
	MarketID  uint64
	Authority solana.PublicKey
}

// CancelMarket assembles an unsigned cancel_market transaction. Cancellation
// refunds all stakes on chain; only the creator or the platform may cancel.
func (a *Assembler) CancelMarket(ctx context.Context, p CancelParams) (*Assembled, error) {
	market, err := a.snapshots.GetMarket(ctx, p.MarketID)
	if err != nil {
		return nil, err
	}
	switch market.Status {
	case program.StatusActive, program.StatusPaused, program.StatusClosed:
	default:
		return nil, inputError("market is %s and can no longer be cancelled", market.Status)
	}
	if !p.Authority.Equals(market.Creator) && !p.Authority.Equals(a.cfg.PlatformWallet) {
		return nil, inputError("only the market creator or the platform may cancel")
	}

	marketPDA, _, err := program.MarketAddress(a.cfg.ProgramID, p.MarketID)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		writable(marketPDA),
		signerReadonly(p.Authority),
	}

	data := program.CancelMarketData()

	tx, encoded, err := a.buildTransaction(ctx, p.Authority, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            program.InstrCancelMarket,
		TransactionBase64: encoded,
		Addresses: map[string]string{
			"market": marketPDA.String(),
		},
	}
	return a.finish(ctx, out, tx)
}
