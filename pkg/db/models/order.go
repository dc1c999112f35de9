package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecomarket/ecocoins-backend/pkg/enums"
)

// Order is the settled result of one checkout. Only Status and its
// timestamps change after creation.
type Order struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID             string            `gorm:"column:user_id;type:varchar(64);not null;index:idx_orders_user_created,priority:1"`
	Status             enums.OrderStatus `gorm:"column:status;type:varchar(16);not null;index:idx_orders_status"`
	TotalMoney         decimal.Decimal   `gorm:"column:total_money;type:numeric(12,2);not null"`
	TotalEcoCoinsSpent int64             `gorm:"column:total_eco_coins_spent;not null;default:0"`
	TotalMoneyDiscount decimal.Decimal   `gorm:"column:total_money_discount;type:numeric(12,2);not null"`
	TotalMoneyToPay    decimal.Decimal   `gorm:"column:total_money_to_pay;type:numeric(12,2);not null"`
	Items              []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ConfirmedAt        *time.Time        `gorm:"column:confirmed_at"`
	DeliveredAt        *time.Time        `gorm:"column:delivered_at"`
	CancelledAt        *time.Time        `gorm:"column:cancelled_at"`
	CreatedAt          time.Time         `gorm:"column:created_at;not null;index:idx_orders_user_created,priority:2,sort:desc"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	return nil
}
