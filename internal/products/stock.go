package product

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// StockLine is a quantity of one product.
type StockLine struct {
	ProductID uuid.UUID
	Qty       int
}

// InLockOrder merges lines for the same product and sorts them by product id.
// Any transaction that updates several stock rows walks them in this order.
func InLockOrder(lines []StockLine) []StockLine {
	merged := make([]StockLine, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Qty += line.Qty
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	slices.SortFunc(merged, func(a, b StockLine) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})
	return merged
}
