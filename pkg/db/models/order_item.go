package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem snapshots one settled cart line.
type OrderItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:idx_order_items_order_position,priority:1"`
	Position       int             `gorm:"column:position;not null;index:idx_order_items_order_position,priority:2"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	SKU            string          `gorm:"column:sku;type:varchar(64);not null"`
	NameSnapshot   string          `gorm:"column:name_snapshot;not null"`
	Qty            int             `gorm:"column:qty;not null"`
	UnitPriceMoney decimal.Decimal `gorm:"column:unit_price_money;type:numeric(12,2);not null"`
	LineMoney      decimal.Decimal `gorm:"column:line_money;type:numeric(12,2);not null"`
	EcoCoinsSpent  int64           `gorm:"column:eco_coins_spent;not null;default:0"`
	MoneyDiscount  decimal.Decimal `gorm:"column:money_discount;type:numeric(12,2);not null"`
	MoneyToPay     decimal.Decimal `gorm:"column:money_to_pay;type:numeric(12,2);not null"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
