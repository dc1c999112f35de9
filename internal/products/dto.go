package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricePolicy is what settlement needs to price one line.
type PricePolicy struct {
	ProductID                  uuid.UUID
	SKU                        string
	Name                       string
	UnitPrice                  decimal.Decimal
	IsActive                   bool
	Stock                      int
	EcoCoinsEnabled            bool
	MaxEcoCoinsDiscountPercent decimal.Decimal
}

// CreateProductInput seeds a catalog row.
type CreateProductInput struct {
	SKU                        string
	Name                       string
	BasePrice                  decimal.Decimal
	Stock                      int
	IsActive                   bool
	EcoCoinsEnabled            bool
	MaxEcoCoinsDiscountPercent *decimal.Decimal
	Promo                      *PromoInput
}

// PromoInput describes a promotional price window.
type PromoInput struct {
	Price    decimal.Decimal
	Active   bool
	StartsAt *time.Time
	EndsAt   *time.Time
}
