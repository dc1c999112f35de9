package product

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecomarket/ecocoins-backend/pkg/db/models"
)

// EffectivePrice returns the promotional price when the promotion is active and
// inside its window at now, else the base price. Open window bounds are unbounded.
func EffectivePrice(p *models.Product, now time.Time) decimal.Decimal {
	if promoApplies(p, now) {
		return *p.PromoPrice
	}
	return p.BasePrice
}

func promoApplies(p *models.Product, now time.Time) bool {
	if !p.PromoActive || p.PromoPrice == nil || p.PromoPrice.IsNegative() {
		return false
	}
	if p.PromoStartsAt != nil && now.Before(*p.PromoStartsAt) {
		return false
	}
	if p.PromoEndsAt != nil && now.After(*p.PromoEndsAt) {
		return false
	}
	return true
}
