package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the catalog row consulted at checkout. Prices are USD.
type Product struct {
	ID                         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SKU                        string           `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:ux_products_sku"`
	Name                       string           `gorm:"column:name;not null"`
	BasePrice                  decimal.Decimal  `gorm:"column:base_price;type:numeric(12,2);not null"`
	PromoActive                bool             `gorm:"column:promo_active;not null"`
	PromoPrice                 *decimal.Decimal `gorm:"column:promo_price;type:numeric(12,2)"`
	PromoStartsAt              *time.Time       `gorm:"column:promo_starts_at"`
	PromoEndsAt                *time.Time       `gorm:"column:promo_ends_at"`
	Stock                      int              `gorm:"column:stock;not null;default:0;check:chk_products_stock_non_negative,stock >= 0"`
	IsActive                   bool             `gorm:"column:is_active;not null"`
	EcoCoinsEnabled            bool             `gorm:"column:eco_coins_enabled;not null"`
	MaxEcoCoinsDiscountPercent decimal.Decimal  `gorm:"column:max_eco_coins_discount_percent;type:numeric(3,2);not null"`
	CreatedAt                  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
