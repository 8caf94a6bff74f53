package blockchain

import (
	"errors"
	"fmt"
)

// Sentinel errors separating the failure classes callers react to
// differently: a missing account is final for this snapshot, a transport
// failure is retryable.
var (
	ErrNotFound  = errors.New("account not found")
	ErrTransport = errors.New("rpc transport error")
)

// programErrorNames maps the program's custom error codes (anchor custom
// errors start at 6000) to their declared names.
var programErrorNames = map[int]string{
	6000: "MarketNotActive",
	6001: "BetBelowMinimum",
	6002: "BetAboveMaximum",
	6003: "BettingFrozen",
	6004: "MarketNotResolved",
	6005: "AlreadyClaimed",
	6006: "NotWhitelisted",
	6007: "InvalidInviteProof",
	6008: "InvalidOutcome",
	6009: "QuestionTooLong",
	6010: "EventBufferViolated",
	6011: "MeasurementOrderViolated",
	6012: "ResolutionNotProposed",
	6013: "DisputeWindowOpen",
	6014: "ResolutionDisputed",
	6015: "NotAuthorized",
	6016: "AffiliateCodeTaken",
	6017: "AffiliateInactive",
	6018: "NothingToClaim",
	6019: "CreatorFeeAboveCeiling",
	6020: "PoolOverflow",
}

// ProgramErrorName resolves a custom error code to its name, or a numeric
// fallback for codes this build does not know.
func ProgramErrorName(code int) string {
	if name, ok := programErrorNames[code]; ok {
		return name
	}
	return fmt.Sprintf("UnknownProgramError(%d)", code)
}
