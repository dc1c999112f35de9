package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomarket/ecocoins-backend/pkg/enums"
)

// WalletLedgerEntry is an immutable record of one balance change. Amount is
// always non-negative; Delta carries the signed effect on the balance.
type WalletLedgerEntry struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string                `gorm:"column:user_id;type:varchar(64);not null;index:ux_wallet_ledger_idempotency,unique,priority:1,where:ref_id IS NOT NULL;index:idx_wallet_ledger_user_created,priority:1"`
	Type      enums.LedgerEntryType `gorm:"column:entry_type;type:varchar(16);not null;index:ux_wallet_ledger_idempotency,unique,priority:2,where:ref_id IS NOT NULL"`
	Source    string                `gorm:"column:source;type:varchar(64);not null;index:ux_wallet_ledger_idempotency,unique,priority:3,where:ref_id IS NOT NULL"`
	RefID     *string               `gorm:"column:ref_id;type:varchar(128);index:ux_wallet_ledger_idempotency,unique,priority:4,where:ref_id IS NOT NULL"`
	Amount    int64                 `gorm:"column:amount;not null;check:chk_wallet_ledger_amount_non_negative,amount >= 0"`
	Delta     int64                 `gorm:"column:delta;not null"`
	Note      *string               `gorm:"column:note"`
	CreatedAt time.Time             `gorm:"column:created_at;not null;index:idx_wallet_ledger_user_created,priority:2,sort:desc"`
}

func (WalletLedgerEntry) TableName() string { return "wallet_ledger_entries" }

func (e *WalletLedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}
