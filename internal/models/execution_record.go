package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	ExecutionStatusFilled  = "filled"
	ExecutionStatusFailed  = "failed"
	ExecutionStatusSkipped = "skipped"
)

// ExecutionRecord is the persisted outcome of one plan within one batch
// run, kept for audit and the recent-orders view.
type ExecutionRecord struct {
	ID     uint64    `gorm:"primaryKey;autoIncrement"`
	SIPID  uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	AssetName string `gorm:"type:varchar(32);not null"`
	Status    string `gorm:"type:varchar(20);not null;index"`

	Price       decimal.Decimal `gorm:"type:numeric(20,10)"`
	Size        string          `gorm:"type:varchar(40)"`
	NotionalUSD decimal.Decimal `gorm:"type:numeric(30,10)"`

	FailureReason string         `gorm:"type:text"`
	RawResponse   datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (ExecutionRecord) TableName() string {
	return "execution_records"
}
