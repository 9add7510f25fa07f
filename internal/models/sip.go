package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SIPStatusActive    = "active"
	SIPStatusPaused    = "paused"
	SIPStatusCancelled = "cancelled"
)

// SIP is a user's recurring purchase instruction. Cancelled is terminal;
// rows are never hard-deleted.
type SIP struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	AssetName string `gorm:"type:varchar(32);not null"`
	// AssetIndex is the exchange-assigned spot index, immutable once set.
	AssetIndex int `gorm:"not null"`

	MonthlyAmountUSDC decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	Status string `gorm:"type:varchar(20);not null;default:'active';index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (SIP) TableName() string {
	return "sips"
}

// CanTransitionTo enforces active<->paused and (active|paused)->cancelled.
func (s *SIP) CanTransitionTo(status string) bool {
	if s.Status == SIPStatusCancelled {
		return false
	}
	switch status {
	case SIPStatusActive, SIPStatusPaused, SIPStatusCancelled:
		return status != s.Status
	default:
		return false
	}
}
