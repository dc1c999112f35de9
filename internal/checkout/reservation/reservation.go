package reservation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomarket/ecocoins-backend/internal/checkout/helpers"
	product "github.com/ecomarket/ecocoins-backend/internal/products"
)

// StockDecrementer is the slice of the catalog that reservation needs.
type StockDecrementer interface {
	DecrementStockIfAvailable(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error)
}

// Request reserves qty units of one product.
type Request struct {
	ProductID uuid.UUID
	Qty       int
}

// Reserve decrements stock in product-id order, with repeated products
// merged into one decrement. The first product that loses its race stops the
// run with INSUFFICIENT_STOCK; earlier decrements are undone when the caller
// rolls back tx.
func Reserve(ctx context.Context, tx *gorm.DB, stock StockDecrementer, requests []Request) error {
	lines := make([]product.StockLine, 0, len(requests))
	for _, req := range requests {
		lines = append(lines, product.StockLine{ProductID: req.ProductID, Qty: req.Qty})
	}
	for _, line := range product.InLockOrder(lines) {
		ok, err := stock.DecrementStockIfAvailable(ctx, tx, line.ProductID, line.Qty)
		if err != nil {
			return err
		}
		if !ok {
			return helpers.InsufficientStock(line.ProductID, line.Qty, -1)
		}
	}
	return nil
}
