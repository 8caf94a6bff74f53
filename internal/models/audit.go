package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssembledAction is the audit record written for every transaction this
// service hands to a signer. The chain is the source of truth for what was
// eventually submitted; this table records what was assembled and for whom.
type AssembledAction struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Action        string    `gorm:"not null;index" json:"action"`
	Wallet        string    `gorm:"not null;index" json:"wallet"`
	MarketID      *uint64   `gorm:"index" json:"market_id,omitempty"`
	Addresses     string    `gorm:"type:text" json:"addresses"`
	QuoteNet      *uint64   `json:"quote_net,omitempty"`
	Warnings      string    `gorm:"type:text" json:"warnings"`
	SimulationOk  *bool     `json:"simulation_ok,omitempty"`
	SimulationErr string    `json:"simulation_err,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides the gorm default.
func (AssembledAction) TableName() string {
	return "assembled_actions"
}

// BeforeCreate assigns the ID client-side so the model also works on
// databases without a uuid default.
func (a *AssembledAction) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
