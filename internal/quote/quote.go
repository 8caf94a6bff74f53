// Package quote implements the pari-mutuel payout arithmetic. All financial
// math is integer lamports with truncating division, matching the on-chain
// program's u64 arithmetic so off-chain quotes and on-chain settlement never
// diverge. Decimals appear only at the display boundary.
package quote

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/shopspring/decimal"

	"market-agent/internal/fees"
)

// LamportsPerUnit converts between lamports and the display unit.
const LamportsPerUnit = 1_000_000_000

// ErrEmptyPool marks a quote against a side nobody has bet on; the payout is
// undefined rather than a division fault.
var ErrEmptyPool = errors.New("winning pool is empty, payout undefined")

// Quote is a request-scoped payout computation. It is never persisted.
type Quote struct {
	Bet         uint64          `json:"bet"`
	GrossPayout uint64          `json:"gross_payout"`
	Profit      uint64          `json:"profit"`
	Fee         uint64          `json:"fee"`
	NetPayout   uint64          `json:"net_payout"`
	FeeBps      uint16          `json:"fee_bps"`
	Odds        decimal.Decimal `json:"odds"`
	Undefined   bool            `json:"undefined"`
}

// mulDiv computes a*b/c in 128-bit intermediate space with truncation.
func mulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, errors.New("division by zero")
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, fmt.Errorf("overflow computing %d*%d/%d", a, b, c)
	}
	q, _ := bits.Div64(hi, lo, c)
	return q, nil
}

// Payout computes the pari-mutuel payout for a bet on the winning side.
// winningPool and totalPool must already include the bet; for a hypothetical
// quote the caller adds the candidate bet to both before calling.
//
//	gross  = bet * total / winning   (truncated)
//	profit = gross - bet
//	fee    = profit * feeBps / 10000 (truncated)
//	net    = gross - fee
func Payout(bet, winningPool, totalPool uint64, feeBps uint16) (Quote, error) {
	if bet == 0 {
		return Quote{}, errors.New("bet must be positive")
	}
	if winningPool == 0 {
		// Nobody on this side yet: report undefined instead of dividing.
		return Quote{Bet: bet, FeeBps: feeBps, Undefined: true}, ErrEmptyPool
	}
	if bet > winningPool || winningPool > totalPool {
		return Quote{}, fmt.Errorf("inconsistent pools: bet=%d winning=%d total=%d", bet, winningPool, totalPool)
	}

	gross, err := mulDiv(bet, totalPool, winningPool)
	if err != nil {
		return Quote{}, err
	}

	// winning <= total guarantees gross >= bet.
	profit := gross - bet

	fee, err := mulDiv(profit, uint64(feeBps), fees.FeeDenominator)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		Bet:         bet,
		GrossPayout: gross,
		Profit:      profit,
		Fee:         fee,
		NetPayout:   gross - fee,
		FeeBps:      feeBps,
		Odds:        Odds(winningPool, totalPool),
	}, nil
}

// Hypothetical quotes a candidate bet against the current pools: the bet is
// added to the chosen side and the total before the payout formula runs.
func Hypothetical(bet, sidePool, totalPool uint64, feeBps uint16) (Quote, error) {
	return Payout(bet, sidePool+bet, totalPool+bet, feeBps)
}

// Odds reports winningPool/totalPool for display. It carries no financial
// effect and is the one place decimal arithmetic is acceptable.
func Odds(winningPool, totalPool uint64) decimal.Decimal {
	if totalPool == 0 {
		return decimal.Zero
	}
	return decimal.NewFromUint64(winningPool).
		Div(decimal.NewFromUint64(totalPool)).
		Round(6)
}

// ToDisplay converts lamports to the human-facing decimal unit.
func ToDisplay(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Div(decimal.NewFromInt(LamportsPerUnit))
}

// FromDisplay converts the human-facing decimal unit to lamports, truncating
// sub-lamport precision.
func FromDisplay(amount decimal.Decimal) (uint64, error) {
	if amount.IsNegative() {
		return 0, errors.New("amount must not be negative")
	}
	lamports := amount.Mul(decimal.NewFromInt(LamportsPerUnit)).Truncate(0)
	if !lamports.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %s exceeds uint64 lamports", amount)
	}
	return lamports.BigInt().Uint64(), nil
}
