package program

import "fmt"

// MarketStatus mirrors the on-chain status byte.
type MarketStatus uint8

const (
	StatusActive MarketStatus = iota
	StatusClosed
	StatusResolved
	StatusCancelled
	StatusPaused
	StatusResolvedPending
	StatusDisputed
)

func (s MarketStatus) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusClosed:
		return "CLOSED"
	case StatusResolved:
		return "RESOLVED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusPaused:
		return "PAUSED"
	case StatusResolvedPending:
		return "RESOLVED_PENDING"
	case StatusDisputed:
		return "DISPUTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// Valid reports whether the byte read from chain is a known status.
func (s MarketStatus) Valid() bool {
	return s <= StatusDisputed
}

// Layer is the administrative classification that selects the fee schedule.
type Layer uint8

const (
	LayerOfficial Layer = iota
	LayerLab
	LayerPrivate
)

func (l Layer) String() string {
	switch l {
	case LayerOfficial:
		return "OFFICIAL"
	case LayerLab:
		return "LAB"
	case LayerPrivate:
		return "PRIVATE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(l))
	}
}

// ParseLayer converts the API string form to a Layer.
func ParseLayer(s string) (Layer, error) {
	switch s {
	case "OFFICIAL":
		return LayerOfficial, nil
	case "LAB":
		return LayerLab, nil
	case "PRIVATE":
		return LayerPrivate, nil
	default:
		return 0, fmt.Errorf("unknown layer %q", s)
	}
}

// AccessGate controls who may bet on a market.
type AccessGate uint8

const (
	GatePublic AccessGate = iota
	GateWhitelist
	GateInviteHash
)

func (g AccessGate) String() string {
	switch g {
	case GatePublic:
		return "PUBLIC"
	case GateWhitelist:
		return "WHITELIST"
	case GateInviteHash:
		return "INVITE_HASH"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(g))
	}
}

// ParseAccessGate converts the API string form to an AccessGate.
func ParseAccessGate(s string) (AccessGate, error) {
	switch s {
	case "PUBLIC":
		return GatePublic, nil
	case "WHITELIST":
		return GateWhitelist, nil
	case "INVITE_HASH":
		return GateInviteHash, nil
	default:
		return 0, fmt.Errorf("unknown access gate %q", s)
	}
}

// ResolutionMode selects who is allowed to propose the outcome.
type ResolutionMode uint8

const (
	ResolveByCreator ResolutionMode = iota
	ResolveByOracle
	ResolveByCouncil
)

func (m ResolutionMode) String() string {
	switch m {
	case ResolveByCreator:
		return "CREATOR"
	case ResolveByOracle:
		return "ORACLE"
	case ResolveByCouncil:
		return "COUNCIL"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(m))
	}
}

// ParseResolutionMode converts the API string form to a ResolutionMode.
func ParseResolutionMode(s string) (ResolutionMode, error) {
	switch s {
	case "CREATOR":
		return ResolveByCreator, nil
	case "ORACLE":
		return ResolveByOracle, nil
	case "COUNCIL":
		return ResolveByCouncil, nil
	default:
		return 0, fmt.Errorf("unknown resolution mode %q", s)
	}
}

// Side is a boolean market outcome.
type Side uint8

const (
	SideYes Side = iota
	SideNo
)

func (s Side) String() string {
	switch s {
	case SideYes:
		return "YES"
	case SideNo:
		return "NO"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// ParseSide converts the API string form to a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "YES":
		return SideYes, nil
	case "NO":
		return SideNo, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}
