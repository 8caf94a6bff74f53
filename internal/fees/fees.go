// Package fees resolves the fee schedule in effect for a market layer.
//
// The table is consulted exactly once per market, at creation time; the
// resolved rates are frozen into the market account and every later quote or
// claim uses the frozen copy. Changing the live table never reprices an
// existing market.
package fees

import (
	"encoding/json"
	"fmt"
	"os"

	"market-agent/internal/program"
)

// FeeDenominator is the basis-point denominator shared with the on-chain program.
const FeeDenominator = 10_000

// Schedule is the set of rates and costs applied to one market layer.
type Schedule struct {
	PlatformFeeBps       uint16 `json:"platform_fee_bps"`
	AffiliateFeeBps      uint16 `json:"affiliate_fee_bps"`
	CreatorFeeCeilingBps uint16 `json:"creator_fee_ceiling_bps"`
	CreationCostLamports uint64 `json:"creation_cost_lamports"`
}

// Table maps the three market layers to their schedules.
type Table struct {
	Official Schedule `json:"official"`
	Lab      Schedule `json:"lab"`
	Private  Schedule `json:"private"`
}

// DefaultTable returns the protocol fee table currently deployed. Deployments
// override it through configuration.
func DefaultTable() Table {
	return Table{
		Official: Schedule{
			PlatformFeeBps:       250,
			AffiliateFeeBps:      50,
			CreatorFeeCeilingBps: 200,
			CreationCostLamports: 0,
		},
		Lab: Schedule{
			PlatformFeeBps:       300,
			AffiliateFeeBps:      50,
			CreatorFeeCeilingBps: 200,
			CreationCostLamports: 100_000_000,
		},
		Private: Schedule{
			PlatformFeeBps:       350,
			AffiliateFeeBps:      50,
			CreatorFeeCeilingBps: 200,
			CreationCostLamports: 50_000_000,
		},
	}
}

// LoadTable reads a fee table from a JSON file. Fields the file omits keep
// their defaults.
func LoadTable(path string) (Table, error) {
	t := DefaultTable()

	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read fee table: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("failed to parse fee table: %w", err)
	}
	return t, nil
}

// Resolve returns the schedule for a layer from the live table. Only market
// creation may call this; everything after creation must use Frozen.
func (t Table) Resolve(layer program.Layer) (Schedule, error) {
	switch layer {
	case program.LayerOfficial:
		return t.Official, nil
	case program.LayerLab:
		return t.Lab, nil
	case program.LayerPrivate:
		return t.Private, nil
	default:
		return Schedule{}, fmt.Errorf("no fee schedule for layer %s", layer)
	}
}

// Frozen reconstructs the schedule captured in a market account at creation.
// CreationCostLamports is zero: the cost was paid once and is not part of any
// later calculation.
func Frozen(m *program.Market) Schedule {
	return Schedule{
		PlatformFeeBps:       m.PlatformFeeBps,
		AffiliateFeeBps:      m.AffiliateFeeBps,
		CreatorFeeCeilingBps: m.CreatorFeeBps,
	}
}

// FrozenRace is Frozen for a multi-outcome market account.
func FrozenRace(m *program.RaceMarket) Schedule {
	return Schedule{
		PlatformFeeBps:       m.PlatformFeeBps,
		AffiliateFeeBps:      m.AffiliateFeeBps,
		CreatorFeeCeilingBps: m.CreatorFeeBps,
	}
}
