package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"market-agent/internal/assembler"
	"market-agent/internal/blockchain"
	"market-agent/internal/models"
	"market-agent/internal/quote"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.AssembledAction{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

func assembled(action string) *assembler.Assembled {
	return &assembler.Assembled{
		Action:            action,
		TransactionBase64: "AQID",
		Addresses:         map[string]string{"market": "abc"},
		Quote:             &quote.Quote{Bet: 10_000_000, NetPayout: 16_466_667},
	}
}

func TestRecordAndListByWallet(t *testing.T) {
	db := setupTestDB(t)
	db.Exec("DELETE FROM assembled_actions")

	service := NewAuditService(db)
	marketID := uint64(1)

	if err := service.RecordAssembly("wallet-a", &marketID, assembled("place_bet")); err != nil {
		t.Fatalf("RecordAssembly failed: %v", err)
	}
	if err := service.RecordAssembly("wallet-a", &marketID, assembled("claim_winnings")); err != nil {
		t.Fatalf("RecordAssembly failed: %v", err)
	}
	if err := service.RecordAssembly("wallet-b", nil, assembled("register_affiliate")); err != nil {
		t.Fatalf("RecordAssembly failed: %v", err)
	}

	entries, err := service.ListByWallet("wallet-a", 10)
	if err != nil {
		t.Fatalf("ListByWallet failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Wallet != "wallet-a" {
			t.Errorf("entry for %s leaked into wallet-a history", e.Wallet)
		}
		if e.QuoteNet == nil || *e.QuoteNet != 16_466_667 {
			t.Errorf("quote net = %v", e.QuoteNet)
		}
	}
}

func TestListByMarket(t *testing.T) {
	db := setupTestDB(t)
	db.Exec("DELETE FROM assembled_actions")

	service := NewAuditService(db)
	m1, m2 := uint64(1), uint64(2)

	_ = service.RecordAssembly("wallet-a", &m1, assembled("place_bet"))
	_ = service.RecordAssembly("wallet-b", &m1, assembled("place_bet"))
	_ = service.RecordAssembly("wallet-a", &m2, assembled("place_bet"))

	entries, err := service.ListByMarket(m1, 10)
	if err != nil {
		t.Fatalf("ListByMarket failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestRecordSimulationOutcome(t *testing.T) {
	db := setupTestDB(t)
	db.Exec("DELETE FROM assembled_actions")

	service := NewAuditService(db)

	out := assembled("place_bet")
	out.Simulation = &blockchain.SimulationResult{
		Ok:        false,
		ErrorName: "MarketNotActive",
	}
	if err := service.RecordAssembly("wallet-a", nil, out); err != nil {
		t.Fatalf("RecordAssembly failed: %v", err)
	}

	entries, err := service.ListByWallet("wallet-a", 1)
	if err != nil {
		t.Fatalf("ListByWallet failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.SimulationOk == nil || *e.SimulationOk {
		t.Error("simulation failure should be recorded")
	}
	if e.SimulationErr != "MarketNotActive" {
		t.Errorf("simulation err = %q", e.SimulationErr)
	}
}
