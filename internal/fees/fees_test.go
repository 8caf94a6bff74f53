package fees

import (
	"os"
	"path/filepath"
	"testing"

	"market-agent/internal/program"
)

func TestResolvePerLayer(t *testing.T) {
	table := DefaultTable()

	cases := []struct {
		layer        program.Layer
		platformBps  uint16
		creationCost uint64
	}{
		{program.LayerOfficial, 250, 0},
		{program.LayerLab, 300, 100_000_000},
		{program.LayerPrivate, 350, 50_000_000},
	}

	for _, c := range cases {
		s, err := table.Resolve(c.layer)
		if err != nil {
			t.Fatalf("Resolve(%s) failed: %v", c.layer, err)
		}
		if s.PlatformFeeBps != c.platformBps {
			t.Errorf("%s platform fee = %d, want %d", c.layer, s.PlatformFeeBps, c.platformBps)
		}
		if s.CreationCostLamports != c.creationCost {
			t.Errorf("%s creation cost = %d, want %d", c.layer, s.CreationCostLamports, c.creationCost)
		}
		if s.AffiliateFeeBps != 50 {
			t.Errorf("%s affiliate fee = %d, want 50", c.layer, s.AffiliateFeeBps)
		}
	}
}

func TestResolveUnknownLayer(t *testing.T) {
	if _, err := DefaultTable().Resolve(program.Layer(9)); err == nil {
		t.Fatal("expected error for unknown layer")
	}
}

func TestLoadTableOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.json")
	data := `{"lab": {"platform_fee_bps": 400, "affiliate_fee_bps": 50, "creator_fee_ceiling_bps": 200, "creation_cost_lamports": 200000000}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	if table.Lab.PlatformFeeBps != 400 {
		t.Errorf("lab platform fee = %d, want 400", table.Lab.PlatformFeeBps)
	}
	if table.Lab.CreationCostLamports != 200_000_000 {
		t.Errorf("lab creation cost = %d, want 200000000", table.Lab.CreationCostLamports)
	}
	if table.Official.PlatformFeeBps != 250 {
		t.Errorf("official platform fee = %d, untouched layers must keep defaults", table.Official.PlatformFeeBps)
	}
}

func TestLoadTableMissingFile(t *testing.T) {
	if _, err := LoadTable(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFrozenIgnoresLiveTable(t *testing.T) {
	// A market created under old rates keeps them no matter what the live
	// table says now.
	m := &program.Market{
		PlatformFeeBps:  100,
		AffiliateFeeBps: 25,
		CreatorFeeBps:   150,
		Layer:           program.LayerLab,
	}

	frozen := Frozen(m)
	if frozen.PlatformFeeBps != 100 {
		t.Errorf("frozen platform fee = %d, want 100", frozen.PlatformFeeBps)
	}
	if frozen.AffiliateFeeBps != 25 {
		t.Errorf("frozen affiliate fee = %d, want 25", frozen.AffiliateFeeBps)
	}
	if frozen.CreationCostLamports != 0 {
		t.Error("frozen schedule must not carry a creation cost")
	}

	live, _ := DefaultTable().Resolve(m.Layer)
	if live.PlatformFeeBps == frozen.PlatformFeeBps {
		t.Fatal("test fixture should diverge from the live table")
	}
}
