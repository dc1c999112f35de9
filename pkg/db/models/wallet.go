package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Wallet is the single mutable EcoCoins balance owned by a user.
type Wallet struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID          string    `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:ux_wallets_user_id"`
	EcoCoinsBalance int64     `gorm:"column:eco_coins_balance;not null;default:0;check:chk_wallets_balance_non_negative,eco_coins_balance >= 0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Wallet) TableName() string { return "wallets" }

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
