package rules

import (
	"fmt"
	"time"

	"market-agent/internal/program"
)

// Rule identifiers used in structured rejections.
const (
	RuleEventBuffer      = "event_buffer"
	RuleMeasurementOrder = "measurement_order"
	RuleBettingFreeze    = "betting_freeze"
	RuleDisputeWindow    = "dispute_window"
	RuleResolutionState  = "resolution_state"
)

// TimingConfig holds the protocol timing constants. Values are configuration,
// not code; Load in internal/config may override any of them per deployment.
type TimingConfig struct {
	// MinEventBuffer is the hard floor between betting close and the event.
	MinEventBuffer time.Duration
	// RecommendedEventBuffer produces a warning, not a rejection, when unmet.
	RecommendedEventBuffer time.Duration
	// FreezeWindow rejects bets this close to the closing time regardless of
	// on-chain status.
	FreezeWindow time.Duration
	// DisputeWindow must elapse after a proposed resolution, with no open
	// dispute, before finalization is legal.
	DisputeWindow time.Duration
}

// DefaultTimingConfig returns the deployed protocol constants.
func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		MinEventBuffer:         12 * time.Hour,
		RecommendedEventBuffer: 48 * time.Hour,
		FreezeWindow:           5 * time.Minute,
		DisputeWindow:          24 * time.Hour,
	}
}

func fmtTs(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// ValidateCreation applies the two creation-time rules: the event-buffer rule
// and the measurement-ordering rule.
func (c TimingConfig) ValidateCreation(closeTs, eventTs, measurementStartTs int64) Result {
	res := Result{OK: true}

	buffer := time.Duration(eventTs-closeTs) * time.Second
	if buffer < c.MinEventBuffer {
		res.reject(RuleEventBuffer,
			fmt.Sprintf("betting must close at least %s before the event; it closes %s before", c.MinEventBuffer, buffer),
			fmt.Sprintf("close <= event - %s", c.MinEventBuffer),
			fmt.Sprintf("close = event - %s", buffer),
		)
	} else if buffer < c.RecommendedEventBuffer {
		res.warn("betting closes only %s before the event; %s or more is recommended", buffer, c.RecommendedEventBuffer)
	}

	// A close at or after the measurement start would let bettors wager with
	// partial knowledge of the outcome. Always a hard rejection.
	if closeTs >= measurementStartTs {
		res.reject(RuleMeasurementOrder,
			"betting close must strictly precede the measurement period start",
			fmt.Sprintf("close < %s", fmtTs(measurementStartTs)),
			fmt.Sprintf("close = %s", fmtTs(closeTs)),
		)
	}

	return res
}

// InFreezeWindow reports whether now falls inside the pre-close freeze window.
func (c TimingConfig) InFreezeWindow(now, closeTs int64) bool {
	freezeStart := closeTs - int64(c.FreezeWindow/time.Second)
	return now >= freezeStart
}

// ValidateFreeze rejects a bet inside the freeze window.
func (c TimingConfig) ValidateFreeze(now, closeTs int64) Result {
	res := Result{OK: true}
	if c.InFreezeWindow(now, closeTs) {
		res.reject(RuleBettingFreeze,
			fmt.Sprintf("bets are frozen within %s of closing time", c.FreezeWindow),
			fmt.Sprintf("now < close - %s", c.FreezeWindow),
			fmt.Sprintf("now = %s, close = %s", fmtTs(now), fmtTs(closeTs)),
		)
	}
	return res
}

// ValidateFinalize checks that a proposed resolution is old enough to finalize
// and that no dispute is pending.
func (c TimingConfig) ValidateFinalize(now int64, m *program.Market) Result {
	res := Result{OK: true}

	if m.Status == program.StatusDisputed {
		res.reject(RuleDisputeWindow,
			"resolution is disputed; the dispute must be settled before finalization",
			"status != DISPUTED",
			m.Status.String(),
		)
		return res
	}
	if m.Status != program.StatusResolvedPending {
		res.reject(RuleResolutionState,
			fmt.Sprintf("market must have a proposed resolution to finalize, status is %s", m.Status),
			program.StatusResolvedPending.String(),
			m.Status.String(),
		)
		return res
	}
	if m.ResolutionProposedAt == nil {
		res.reject(RuleResolutionState,
			"market has no resolution proposal timestamp",
			"resolution_proposed_at set",
			"unset",
		)
		return res
	}

	earliest := *m.ResolutionProposedAt + int64(c.DisputeWindow/time.Second)
	if now < earliest {
		res.reject(RuleDisputeWindow,
			fmt.Sprintf("dispute window of %s has not elapsed since the proposed resolution", c.DisputeWindow),
			fmt.Sprintf("now >= %s", fmtTs(earliest)),
			fmt.Sprintf("now = %s", fmtTs(now)),
		)
	}

	return res
}
