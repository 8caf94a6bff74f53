package assembler

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"market-agent/internal/program"
)

// CreateMarketParams are the validated inputs for a create_market action.
type CreateMarketParams struct {
	MarketID             uint64
	Question             string
	CloseTs              int64
	EventTs              int64
	MeasurementStartTs   int64
	ResolutionDeadlineTs int64
	Layer                program.Layer
	AccessGate           program.AccessGate
	ResolutionMode       program.ResolutionMode
	CreatorFeeBps        uint16
	Creator              solana.PublicKey
}

// CreateMarket assembles an unsigned create_market transaction. Content and
// timing screening are hard gates: a blocked question or a violated timing
// rule stops assembly entirely.
func (a *Assembler) CreateMarket(ctx context.Context, p CreateMarketParams) (*Assembled, error) {
	if len(p.Question) == 0 || len(p.Question) > program.MaxQuestionLen {
		return nil, inputError("question must be 1-%d characters, got %d", program.MaxQuestionLen, len(p.Question))
	}

	verdict := a.cfg.Content.Validate(p.Question)
	if verdict.Blocked {
		return nil, contentError(verdict)
	}

	timing := a.cfg.Timing.ValidateCreation(p.CloseTs, p.EventTs, p.MeasurementStartTs)
	if !timing.OK {
		return nil, ruleError(timing)
	}

	// Rates resolved here are frozen into the market account; this is the
	// only moment the live table is consulted for this market.
	schedule, err := a.cfg.FeeTable.Resolve(p.Layer)
	if err != nil {
		return nil, inputError("%v", err)
	}
	if p.CreatorFeeBps > schedule.CreatorFeeCeilingBps {
		return nil, inputError("creator fee %d bps exceeds ceiling of %d bps", p.CreatorFeeBps, schedule.CreatorFeeCeilingBps)
	}

	marketPDA, _, err := program.MarketAddress(a.cfg.ProgramID, p.MarketID)
	if err != nil {
		return nil, err
	}
	profilePDA, _, err := program.CreatorProfileAddress(a.cfg.ProgramID, p.Creator)
	if err != nil {
		return nil, err
	}
	configPDA, _, err := program.ConfigAddress(a.cfg.ProgramID)
	if err != nil {
		return nil, err
	}

	data := program.CreateMarketData(
		p.MarketID, p.Question,
		p.CloseTs, p.EventTs, p.MeasurementStartTs, p.ResolutionDeadlineTs,
		p.Layer, p.AccessGate, p.ResolutionMode,
		schedule.PlatformFeeBps, schedule.AffiliateFeeBps, p.CreatorFeeBps,
	)

	accounts := []*solana.AccountMeta{
		writable(marketPDA),                  // market
		signerWritable(p.Creator),            // creator, pays creation cost
		writable(a.cfg.PlatformWallet),       // platform treasury
		writable(profilePDA),                 // creator profile
		readonly(configPDA),                  // config
		readonly(solana.SystemProgramID),     // system_program
	}

	tx, encoded, err := a.buildTransaction(ctx, p.Creator, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            program.InstrCreateMarket,
		TransactionBase64: encoded,
		Addresses: map[string]string{
			"market":          marketPDA.String(),
			"creator_profile": profilePDA.String(),
			"config":          configPDA.String(),
		},
		Warnings: append(timing.Warnings, verdict.Warnings...),
	}
	if schedule.CreationCostLamports > 0 {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("creation on the %s layer costs %d lamports", p.Layer, schedule.CreationCostLamports))
	}
	return a.finish(ctx, out, tx)
}

// CreateRaceMarketParams are the validated inputs for create_race_market.
type CreateRaceMarketParams struct {
	CreateMarketParams
	Outcomes []string
}

// CreateRaceMarket assembles an unsigned create_race_market transaction.
func (a *Assembler) CreateRaceMarket(ctx context.Context, p CreateRaceMarketParams) (*Assembled, error) {
	if len(p.Outcomes) < program.MinOutcomes || len(p.Outcomes) > program.MaxOutcomes {
		return nil, inputError("race markets need %d-%d outcomes, got %d", program.MinOutcomes, program.MaxOutcomes, len(p.Outcomes))
	}
	seen := make(map[string]bool, len(p.Outcomes))
	for i, label := range p.Outcomes {
		if len(label) == 0 || len(label) > 31 {
			return nil, inputError("outcome label %d must be 1-31 characters", i)
		}
		if seen[label] {
			return nil, inputError("duplicate outcome label %q", label)
		}
		seen[label] = true
	}
	if len(p.Question) == 0 || len(p.Question) > program.MaxQuestionLen {
		return nil, inputError("question must be 1-%d characters, got %d", program.MaxQuestionLen, len(p.Question))
	}

	verdict := a.cfg.Content.Validate(p.Question)
	if verdict.Blocked {
		return nil, contentError(verdict)
	}

	timing := a.cfg.Timing.ValidateCreation(p.CloseTs, p.EventTs, p.MeasurementStartTs)
	if !timing.OK {
		return nil, ruleError(timing)
	}

	schedule, err := a.cfg.FeeTable.Resolve(p.Layer)
	if err != nil {
		return nil, inputError("%v", err)
	}
	if p.CreatorFeeBps > schedule.CreatorFeeCeilingBps {
		return nil, inputError("creator fee %d bps exceeds ceiling of %d bps", p.CreatorFeeBps, schedule.CreatorFeeCeilingBps)
	}

	marketPDA, _, err := program.RaceMarketAddress(a.cfg.ProgramID, p.MarketID)
	if err != nil {
		return nil, err
	}
	profilePDA, _, err := program.CreatorProfileAddress(a.cfg.ProgramID, p.Creator)
	if err != nil {
		return nil, err
	}
	configPDA, _, err := program.ConfigAddress(a.cfg.ProgramID)
	if err != nil {
		return nil, err
	}

	data := program.CreateRaceMarketData(
		p.MarketID, p.Question, p.Outcomes,
		p.CloseTs, p.EventTs, p.MeasurementStartTs, p.ResolutionDeadlineTs,
		p.Layer, p.AccessGate, p.ResolutionMode,
		schedule.PlatformFeeBps, schedule.AffiliateFeeBps, p.CreatorFeeBps,
	)

	accounts := []*solana.AccountMeta{
		writable(marketPDA),
		signerWritable(p.Creator),
		writable(a.cfg.PlatformWallet),
		writable(profilePDA),
		readonly(configPDA),
		readonly(solana.SystemProgramID),
	}

	tx, encoded, err := a.buildTransaction(ctx, p.Creator, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            program.InstrCreateRaceMarket,
		TransactionBase64: encoded,
		Addresses: map[string]string{
			"market":          marketPDA.String(),
			"creator_profile": profilePDA.String(),
			"config":          configPDA.String(),
		},
		Warnings: append(timing.Warnings, verdict.Warnings...),
	}
	return a.finish(ctx, out, tx)
}
