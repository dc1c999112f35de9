package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecomarket/ecocoins-backend/pkg/db/models"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
)

// Totals are the order-level sums of the rounded line values.
type Totals struct {
	TotalMoney         decimal.Decimal `json:"totalMoney"`
	TotalEcoCoinsSpent int64           `json:"totalEcoCoinsSpent"`
	TotalMoneyDiscount decimal.Decimal `json:"totalMoneyDiscount"`
	TotalMoneyToPay    decimal.Decimal `json:"totalMoneyToPay"`
}

// Item is the public shape of one order line.
type Item struct {
	ProductID      uuid.UUID       `json:"productId"`
	SKU            string          `json:"sku"`
	NameSnapshot   string          `json:"nameSnapshot"`
	Qty            int             `json:"qty"`
	UnitPriceMoney decimal.Decimal `json:"unitPriceMoney"`
	LineMoney      decimal.Decimal `json:"lineMoney"`
	EcoCoinsSpent  int64           `json:"ecoCoinsSpent"`
	MoneyDiscount  decimal.Decimal `json:"moneyDiscount"`
	MoneyToPay     decimal.Decimal `json:"moneyToPay"`
}

// OrderDTO is returned by checkout and the order read endpoints.
type OrderDTO struct {
	OrderID     uuid.UUID         `json:"orderId"`
	UserID      string            `json:"userId"`
	Status      enums.OrderStatus `json:"status"`
	Totals      Totals            `json:"totals"`
	Items       []Item            `json:"items"`
	CreatedAt   time.Time         `json:"createdAt"`
	ConfirmedAt *time.Time        `json:"confirmedAt,omitempty"`
	DeliveredAt *time.Time        `json:"deliveredAt,omitempty"`
	CancelledAt *time.Time        `json:"cancelledAt,omitempty"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// AdminFilters narrows the admin order list.
type AdminFilters struct {
	Status *enums.OrderStatus
	UserID string
}

// ToDTO maps a persisted order with its items.
func ToDTO(order *models.Order) OrderDTO {
	items := make([]Item, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, Item{
			ProductID:      it.ProductID,
			SKU:            it.SKU,
			NameSnapshot:   it.NameSnapshot,
			Qty:            it.Qty,
			UnitPriceMoney: it.UnitPriceMoney,
			LineMoney:      it.LineMoney,
			EcoCoinsSpent:  it.EcoCoinsSpent,
			MoneyDiscount:  it.MoneyDiscount,
			MoneyToPay:     it.MoneyToPay,
		})
	}
	return OrderDTO{
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
		Totals: Totals{
			TotalMoney:         order.TotalMoney,
			TotalEcoCoinsSpent: order.TotalEcoCoinsSpent,
			TotalMoneyDiscount: order.TotalMoneyDiscount,
			TotalMoneyToPay:    order.TotalMoneyToPay,
		},
		Items:       items,
		CreatedAt:   order.CreatedAt,
		ConfirmedAt: order.ConfirmedAt,
		DeliveredAt: order.DeliveredAt,
		CancelledAt: order.CancelledAt,
	}
}
