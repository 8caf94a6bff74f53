package rules

import (
	"fmt"

	"market-agent/internal/program"
)

// Rule identifiers for bet legality rejections.
const (
	RuleMarketStatus = "market_status"
	RuleBetBounds    = "bet_bounds"
	RuleAccessGate   = "access_gate"
)

// BetBounds are the global per-bet limits in lamports.
type BetBounds struct {
	Min uint64
	Max uint64
}

// DefaultBetBounds returns the deployed limits: 0.01 SOL to 100 SOL.
func DefaultBetBounds() BetBounds {
	return BetBounds{
		Min: 10_000_000,
		Max: 100_000_000_000,
	}
}

// BetInput is everything the bet validator needs: the proposed amount plus the
// relevant fields of the market snapshot and the caller's gate verification.
type BetInput struct {
	Amount     uint64
	Status     program.MarketStatus
	CloseTs    int64
	AccessGate program.AccessGate
	Layer      program.Layer
	// Whitelisted is the result of the whitelist-PDA probe for this caller.
	Whitelisted bool
	// InviteVerified reports whether the caller presented a valid invite hash.
	InviteVerified bool
	Now            int64
}

// ValidateBet applies every bet-legality check. The checks are independent and
// order does not change the verdict; all violations are collected so the first
// one can be surfaced as the actionable message.
func ValidateBet(in BetInput, bounds BetBounds, tc TimingConfig) Result {
	res := Result{OK: true}

	if in.Status != program.StatusActive {
		res.reject(RuleMarketStatus,
			fmt.Sprintf("market is %s, betting requires ACTIVE", in.Status),
			program.StatusActive.String(),
			in.Status.String(),
		)
	}

	if in.Amount < bounds.Min {
		res.reject(RuleBetBounds,
			fmt.Sprintf("bet of %d lamports is below the minimum of %d", in.Amount, bounds.Min),
			fmt.Sprintf(">= %d", bounds.Min),
			fmt.Sprintf("%d", in.Amount),
		)
	} else if in.Amount > bounds.Max {
		res.reject(RuleBetBounds,
			fmt.Sprintf("bet of %d lamports exceeds the maximum of %d", in.Amount, bounds.Max),
			fmt.Sprintf("<= %d", bounds.Max),
			fmt.Sprintf("%d", in.Amount),
		)
	}

	switch in.AccessGate {
	case program.GatePublic:
		// No gate.
	case program.GateWhitelist:
		if !in.Whitelisted {
			res.reject(RuleAccessGate,
				"market is whitelist-gated and the wallet is not whitelisted",
				"whitelist entry for wallet",
				"none",
			)
		}
	case program.GateInviteHash:
		if !in.InviteVerified {
			res.reject(RuleAccessGate,
				"market is invite-gated and no valid invite proof was presented",
				"valid invite hash",
				"none",
			)
		}
	}

	if freeze := tc.ValidateFreeze(in.Now, in.CloseTs); !freeze.OK {
		res.OK = false
		res.Violations = append(res.Violations, freeze.Violations...)
	}

	return res
}
