package blockchain

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SimulationResult reports a dry run of an assembled transaction. A failed
// simulation is advisory: the unsigned transaction is still returned to the
// caller with this result attached.
type SimulationResult struct {
	Ok            bool     `json:"ok"`
	Error         string   `json:"error,omitempty"`
	ErrorCode     *int     `json:"error_code,omitempty"`
	ErrorName     string   `json:"error_name,omitempty"`
	Logs          []string `json:"logs,omitempty"`
	UnitsConsumed uint64   `json:"units_consumed"`
}

var customErrPattern = regexp.MustCompile(`"Custom":\s*(\d+)`)

// Simulate dry-runs a transaction against the current bank state without
// committing anything. Signature verification is skipped since the
// transaction is unsigned by design.
func (c *Client) Simulate(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error) {
	resp, err := c.rpcClient.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:              false,
		ReplaceRecentBlockhash: true,
		Commitment:             rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: simulate: %v", ErrTransport, err)
	}

	result := &SimulationResult{Ok: true}
	if resp.Value == nil {
		return result, nil
	}

	result.Logs = resp.Value.Logs
	if resp.Value.UnitsConsumed != nil {
		result.UnitsConsumed = *resp.Value.UnitsConsumed
	}

	if resp.Value.Err != nil {
		result.Ok = false
		result.Error = fmt.Sprintf("%v", resp.Value.Err)

		// The error is an untyped JSON structure; the custom program error
		// code, when present, is the part worth naming.
		if raw, err := json.Marshal(resp.Value.Err); err == nil {
			if m := customErrPattern.FindSubmatch(raw); m != nil {
				if code, err := strconv.Atoi(string(m[1])); err == nil {
					result.ErrorCode = &code
					result.ErrorName = ProgramErrorName(code)
				}
			}
		}
	}

	return result, nil
}
