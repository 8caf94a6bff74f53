// Package assembler turns validated action requests into unsigned, fully
// derived Solana transactions. The pipeline for every write action is
// Validate -> Derive -> Resolve Fees -> Quote -> Assemble -> Simulate ->
// Return; if any validation step fails nothing downstream runs and no
// partial transaction is ever produced. The assembler never signs.
package assembler

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"market-agent/internal/blockchain"
	"market-agent/internal/content"
	"market-agent/internal/fees"
	"market-agent/internal/program"
	"market-agent/internal/quote"
	"market-agent/internal/rules"
)

// SnapshotSource provides read-only account snapshots. Implemented by
// *blockchain.Client; stubbed in tests.
type SnapshotSource interface {
	GetMarket(ctx context.Context, marketID uint64) (*program.Market, error)
	GetRaceMarket(ctx context.Context, marketID uint64) (*program.RaceMarket, error)
	GetPosition(ctx context.Context, marketID uint64, owner solana.PublicKey) (*program.Position, error)
	GetAffiliate(ctx context.Context, code string) (*program.Affiliate, error)
	GetCreatorProfile(ctx context.Context, owner solana.PublicKey) (*program.CreatorProfile, error)
	IsWhitelisted(ctx context.Context, marketID uint64, user solana.PublicKey) (bool, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// Simulator dry-runs an assembled transaction. Optional.
type Simulator interface {
	Simulate(ctx context.Context, tx *solana.Transaction) (*blockchain.SimulationResult, error)
}

// Config carries the deployment-specific identities and rule tables.
type Config struct {
	ProgramID      solana.PublicKey
	PlatformWallet solana.PublicKey
	FeeTable       fees.Table
	Timing         rules.TimingConfig
	Bounds         rules.BetBounds
	Content        content.Tables
	// Simulate enables the advisory dry run on every assembled transaction.
	Simulate bool
}

// Assembler composes unsigned transactions for the prediction-market program.
type Assembler struct {
	cfg       Config
	snapshots SnapshotSource
	sim       Simulator
}

// New creates an Assembler. sim may be nil to disable dry runs.
func New(cfg Config, snapshots SnapshotSource, sim Simulator) *Assembler {
	return &Assembler{
		cfg:       cfg,
		snapshots: snapshots,
		sim:       sim,
	}
}

// Assembled is the result of one successfully assembled action: an inert
// transaction plus everything the caller needs to present it to a signer.
type Assembled struct {
	Action            string                        `json:"action"`
	TransactionBase64 string                        `json:"transaction"`
	Addresses         map[string]string             `json:"addresses"`
	Quote             *quote.Quote                  `json:"quote,omitempty"`
	Warnings          []string                      `json:"warnings,omitempty"`
	Simulation        *blockchain.SimulationResult  `json:"simulation,omitempty"`
}

// ValidationError is a local rule rejection. It never reaches the chain and
// always names the specific rule violated.
type ValidationError struct {
	Result  *rules.Result
	Verdict *content.Verdict
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func ruleError(res rules.Result) *ValidationError {
	return &ValidationError{
		Result:  &res,
		Message: res.FirstMessage(),
	}
}

func contentError(v content.Verdict) *ValidationError {
	msg := "question blocked by content screening"
	if len(v.Violations) > 0 {
		msg = v.Violations[0]
	}
	return &ValidationError{
		Verdict: &v,
		Message: msg,
	}
}

func inputError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// buildTransaction composes the single instruction into an unsigned
// transaction carrying a fresh blockhash and the external payer.
func (a *Assembler) buildTransaction(ctx context.Context, payer solana.PublicKey, accounts []*solana.AccountMeta, data []byte) (*solana.Transaction, string, error) {
	blockhash, err := a.snapshots.LatestBlockhash(ctx)
	if err != nil {
		return nil, "", err
	}

	instruction := solana.NewInstruction(a.cfg.ProgramID, accounts, data)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create transaction: %w", err)
	}

	encoded, err := tx.ToBase64()
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode transaction: %w", err)
	}

	return tx, encoded, nil
}

// finish attaches the advisory simulation result. A failed simulation does
// not discard the transaction; the caller decides.
func (a *Assembler) finish(ctx context.Context, out *Assembled, tx *solana.Transaction) (*Assembled, error) {
	if a.sim == nil || !a.cfg.Simulate {
		return out, nil
	}

	result, err := a.sim.Simulate(ctx, tx)
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("simulation unavailable: %v", err))
		return out, nil
	}
	out.Simulation = result
	if !result.Ok {
		name := result.ErrorName
		if name == "" {
			name = result.Error
		}
		out.Warnings = append(out.Warnings, fmt.Sprintf("simulation predicts on-chain rejection: %s", name))
	}
	return out, nil
}

func writable(key solana.PublicKey) *solana.AccountMeta {
	return &solana.AccountMeta{PublicKey: key, IsWritable: true}
}

func readonly(key solana.PublicKey) *solana.AccountMeta {
	return &solana.AccountMeta{PublicKey: key}
}

func signerWritable(key solana.PublicKey) *solana.AccountMeta {
	return &solana.AccountMeta{PublicKey: key, IsWritable: true, IsSigner: true}
}

func signerReadonly(key solana.PublicKey) *solana.AccountMeta {
	return &solana.AccountMeta{PublicKey: key, IsSigner: true}
}
