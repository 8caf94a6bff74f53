package assembler

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"market-agent/internal/program"
)

// WhitelistParams are the validated inputs for whitelist_add and
// whitelist_remove.
type WhitelistParams struct {
	MarketID  uint64
	User      solana.PublicKey
	Authority solana.PublicKey
}

func (a *Assembler) whitelistAction(ctx context.Context, p WhitelistParams, instr string, data []byte) (*Assembled, error) {
	market, err := a.snapshots.GetMarket(ctx, p.MarketID)
	if err != nil {
		return nil, err
	}
	if market.AccessGate != program.GateWhitelist {
		return nil, inputError("market gate is %s, whitelist management requires WHITELIST", market.AccessGate)
	}
	if !p.Authority.Equals(market.Creator) {
		return nil, inputError("only the market creator manages the whitelist")
	}

	marketPDA, _, err := program.MarketAddress(a.cfg.ProgramID, p.MarketID)
	if err != nil {
		return nil, err
	}
	entryPDA, _, err := program.WhitelistAddress(a.cfg.ProgramID, p.MarketID, p.User)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		readonly(marketPDA),
		writable(entryPDA),
		readonly(p.User),
		signerWritable(p.Authority), // pays rent for the entry account
		readonly(solana.SystemProgramID),
	}

	tx, encoded, err := a.buildTransaction(ctx, p.Authority, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            instr,
		TransactionBase64: encoded,
		Addresses: map[string]string{
			"market":          marketPDA.String(),
			"whitelist_entry": entryPDA.String(),
		},
	}
	return a.finish(ctx, out, tx)
}

// WhitelistAdd assembles an unsigned whitelist_add transaction.
func (a *Assembler) WhitelistAdd(ctx context.Context, p WhitelistParams) (*Assembled, error) {
	return a.whitelistAction(ctx, p, program.InstrWhitelistAdd, program.WhitelistAddData())
}

// WhitelistRemove assembles an unsigned whitelist_remove transaction.
func (a *Assembler) WhitelistRemove(ctx context.Context, p WhitelistParams) (*Assembled, error) {
	return a.whitelistAction(ctx, p, program.InstrWhitelistRemove, program.WhitelistRemoveData())
}
