package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	WalletAddress string    `gorm:"type:varchar(64);not null;uniqueIndex"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
