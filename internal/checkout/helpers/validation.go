package helpers

import (
	"github.com/google/uuid"

	product "github.com/ecomarket/ecocoins-backend/internal/products"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
)

// LineRequest is one requested checkout line before pricing.
type LineRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// ValidateLines rejects an empty request and malformed lines. It reports the
// index of the first offending line.
func ValidateLines(lines []LineRequest) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id is required").
				WithDetails(map[string]any{"index": i})
		}
		if line.Qty < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1").
				WithDetails(map[string]any{"index": i, "qty": line.Qty})
		}
	}
	return nil
}

// CheckAvailability rejects inactive products and lines the current stock
// cannot cover.
func CheckAvailability(policy *product.PricePolicy, qty int) error {
	if policy == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if !policy.IsActive {
		return pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is not available").
			WithDetails(map[string]any{"productId": policy.ProductID})
	}
	if policy.Stock < qty {
		return InsufficientStock(policy.ProductID, qty, policy.Stock)
	}
	return nil
}

// InsufficientStock builds the business error for a short line. A negative
// available count is left out of the details.
func InsufficientStock(productID uuid.UUID, requested, available int) error {
	details := map[string]any{"productId": productID, "requested": requested}
	if available >= 0 {
		details["available"] = available
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").WithDetails(details)
}
