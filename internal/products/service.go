package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecomarket/ecocoins-backend/pkg/db/models"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
)

// Catalog is the product surface consumed by settlement and cancellation. Every
// call joins the caller's transaction.
type Catalog interface {
	GetEffectivePriceAndPolicy(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*PricePolicy, error)
	DecrementStockIfAvailable(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error)
	RestoreStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Service implements Catalog. CreateProduct adds catalog rows.
type Service struct {
	repo          *Repository
	defaultMaxPct decimal.Decimal
	now           func() time.Time
}

// NewService wires the catalog. defaultMaxPct applies to products created
// without an explicit coin discount cap.
func NewService(repo *Repository, defaultMaxPct float64) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if defaultMaxPct < 0 || defaultMaxPct > 1 {
		return nil, fmt.Errorf("default max discount percent must be within [0,1]")
	}
	return &Service{
		repo:          repo,
		defaultMaxPct: decimal.NewFromFloat(defaultMaxPct),
		now:           time.Now,
	}, nil
}

func (s *Service) GetEffectivePriceAndPolicy(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*PricePolicy, error) {
	product, err := s.repo.WithTx(tx).FindByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"productId": productID})
	}
	return &PricePolicy{
		ProductID:                  product.ID,
		SKU:                        product.SKU,
		Name:                       product.Name,
		UnitPrice:                  EffectivePrice(product, s.now().UTC()),
		IsActive:                   product.IsActive,
		Stock:                      product.Stock,
		EcoCoinsEnabled:            product.EcoCoinsEnabled,
		MaxEcoCoinsDiscountPercent: clampPercent(product.MaxEcoCoinsDiscountPercent),
	}, nil
}

func (s *Service) DecrementStockIfAvailable(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}
	ok, err := s.repo.WithTx(tx).DecrementStockIfAvailable(ctx, productID, qty)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
	}
	return ok, nil
}

func (s *Service) RestoreStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}
	if err := s.repo.WithTx(tx).RestoreStock(ctx, productID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
	}
	return nil
}

// CreateProduct inserts a catalog row.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku and name are required")
	}
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be non-negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}
	maxPct := s.defaultMaxPct
	if input.MaxEcoCoinsDiscountPercent != nil {
		maxPct = *input.MaxEcoCoinsDiscountPercent
		if maxPct.IsNegative() || maxPct.GreaterThan(decimal.NewFromInt(1)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max eco coins discount percent must be within [0,1]")
		}
	}

	product := &models.Product{
		SKU:                        sku,
		Name:                       name,
		BasePrice:                  input.BasePrice.Round(2),
		Stock:                      input.Stock,
		IsActive:                   input.IsActive,
		EcoCoinsEnabled:            input.EcoCoinsEnabled,
		MaxEcoCoinsDiscountPercent: maxPct,
	}
	if input.Promo != nil {
		price := input.Promo.Price.Round(2)
		product.PromoActive = input.Promo.Active
		product.PromoPrice = &price
		product.PromoStartsAt = input.Promo.StartsAt
		product.PromoEndsAt = input.Promo.EndsAt
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func clampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if one := decimal.NewFromInt(1); pct.GreaterThan(one) {
		return one
	}
	return pct
}
