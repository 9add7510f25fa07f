package models

import (
	"time"

	"github.com/google/uuid"
)

// AgentWallet is the delegated signing credential the platform holds for a
// user. The private key is stored only as a vault token; plaintext key
// material never touches this model.
type AgentWallet struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	AgentAddress        string `gorm:"type:varchar(64);not null"`
	EncryptedPrivateKey string `gorm:"type:text;not null"`

	Approved        bool `gorm:"not null;default:false"`
	BuilderApproved bool `gorm:"not null;default:false"`
	// BuilderFee is the user-authorized fee in tenths of a basis point
	// (10000 = 1%).
	BuilderFee int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (AgentWallet) TableName() string {
	return "agent_wallets"
}
