package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"market-agent/internal/assembler"
	"market-agent/internal/models"
)

// AuditService persists a record of every assembled transaction. Assembly
// never blocks on the audit trail; callers log a failed write and move on.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditService
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// RecordAssembly writes one audit row for a successfully assembled action.
func (s *AuditService) RecordAssembly(wallet string, marketID *uint64, out *assembler.Assembled) error {
	addresses, err := json.Marshal(out.Addresses)
	if err != nil {
		return fmt.Errorf("failed to encode addresses: %w", err)
	}
	warnings, err := json.Marshal(out.Warnings)
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}

	entry := models.AssembledAction{
		Action:    out.Action,
		Wallet:    wallet,
		MarketID:  marketID,
		Addresses: string(addresses),
		Warnings:  string(warnings),
	}
	if out.Quote != nil && !out.Quote.Undefined {
		net := out.Quote.NetPayout
		entry.QuoteNet = &net
	}
	if out.Simulation != nil {
		ok := out.Simulation.Ok
		entry.SimulationOk = &ok
		entry.SimulationErr = out.Simulation.ErrorName
	}

	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record assembled action: %w", err)
	}
	return nil
}

// ListByWallet returns the most recent assembled actions for one wallet.
func (s *AuditService) ListByWallet(wallet string, limit int) ([]models.AssembledAction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var entries []models.AssembledAction
	err := s.db.Where("wallet = ?", wallet).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assembled actions: %w", err)
	}
	return entries, nil
}

// ListByMarket returns the most recent assembled actions against one market.
func (s *AuditService) ListByMarket(marketID uint64, limit int) ([]models.AssembledAction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var entries []models.AssembledAction
	err := s.db.Where("market_id = ?", marketID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assembled actions: %w", err)
	}
	return entries, nil
}
