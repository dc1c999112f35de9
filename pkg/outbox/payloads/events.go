package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecomarket/ecocoins-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when a checkout settles into a PENDING order.
type OrderCreatedEvent struct {
	OrderID            uuid.UUID       `json:"orderId"`
	UserID             string          `json:"userId"`
	ItemCount          int             `json:"itemCount"`
	TotalMoney         decimal.Decimal `json:"totalMoney"`
	TotalEcoCoinsSpent int64           `json:"totalEcoCoinsSpent"`
	TotalMoneyDiscount decimal.Decimal `json:"totalMoneyDiscount"`
	TotalMoneyToPay    decimal.Decimal `json:"totalMoneyToPay"`
}

// OrderStatusChangedEvent is emitted on every admin transition.
type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID         `json:"orderId"`
	UserID    string            `json:"userId"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
	ChangedAt time.Time         `json:"changedAt"`
}

// WalletEntryEvent is emitted for every fresh ledger entry.
type WalletEntryEvent struct {
	UserID     string                `json:"userId"`
	EntryID    uuid.UUID             `json:"entryId"`
	Type       enums.LedgerEntryType `json:"type"`
	Amount     int64                 `json:"amount"`
	Delta      int64                 `json:"delta"`
	Source     string                `json:"source"`
	RefID      *string               `json:"refId,omitempty"`
	NewBalance int64                 `json:"newBalance"`
}
