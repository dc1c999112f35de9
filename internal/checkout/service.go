package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomarket/ecocoins-backend/internal/checkout/helpers"
	"github.com/ecomarket/ecocoins-backend/internal/checkout/reservation"
	"github.com/ecomarket/ecocoins-backend/internal/orders"
	product "github.com/ecomarket/ecocoins-backend/internal/products"
	"github.com/ecomarket/ecocoins-backend/internal/wallet"
	"github.com/ecomarket/ecocoins-backend/pkg/db"
	"github.com/ecomarket/ecocoins-backend/pkg/db/models"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
	"github.com/ecomarket/ecocoins-backend/pkg/logger"
	"github.com/ecomarket/ecocoins-backend/pkg/metrics"
	"github.com/ecomarket/ecocoins-backend/pkg/money"
	"github.com/ecomarket/ecocoins-backend/pkg/outbox"
	"github.com/ecomarket/ecocoins-backend/pkg/outbox/payloads"
)

// Service settles a checkout request into a PENDING order.
type Service interface {
	Execute(ctx context.Context, input CheckoutInput) (*orders.OrderDTO, error)
}

// CheckoutInput is one checkout request. Items are settled in the given order.
type CheckoutInput struct {
	UserID string
	Items  []helpers.LineRequest
	Actor  *wallet.Actor
}

type ServiceParams struct {
	DB      db.TxRunner
	Catalog product.Catalog
	Wallet  wallet.Service
	Orders  orders.Repository
	Outbox  outbox.Emitter
	Rate    money.Rate
	Metrics *metrics.EconomyMetrics
	Logger  *logger.Logger
}

type service struct {
	db      db.TxRunner
	catalog product.Catalog
	wallet  wallet.Service
	orders  orders.Repository
	outbox  outbox.Emitter
	rate    money.Rate
	metrics *metrics.EconomyMetrics
	logg    *logger.Logger
}

// NewService builds the settlement engine.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if !params.Rate.PerCoin().IsPositive() {
		return nil, fmt.Errorf("coin rate required")
	}
	return &service{
		db:      params.DB,
		catalog: params.Catalog,
		wallet:  params.Wallet,
		orders:  params.Orders,
		outbox:  params.Outbox,
		rate:    params.Rate,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Execute prices, plans, reserves, persists and debits inside one
// transaction. Any failure leaves stock, wallet and orders untouched.
func (s *service) Execute(ctx context.Context, input CheckoutInput) (*orders.OrderDTO, error) {
	start := time.Now()
	order, err := s.execute(ctx, input)
	s.metrics.ObserveSettlement(outcomeFor(err), time.Since(start))
	if err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"user_id":    input.UserID,
				"error_code": codeOf(err),
			})
			if te := pkgerrors.As(err); te != nil && (pkgerrors.IsBusinessRule(te.Code()) || te.Code() == pkgerrors.CodeValidation || te.Code() == pkgerrors.CodeNotFound) {
				s.logg.Warn(logCtx, "checkout rejected")
			} else {
				s.logg.Error(logCtx, "checkout failed", err)
			}
		}
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"user_id":     order.UserID,
			"coins_spent": order.TotalEcoCoinsSpent,
			"to_pay":      order.TotalMoneyToPay.StringFixed(money.Places),
		})
		s.logg.Info(logCtx, "checkout settled")
	}
	dto := orders.ToDTO(order)
	return &dto, nil
}

func (s *service) execute(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := helpers.ValidateLines(input.Items); err != nil {
		return nil, err
	}

	var result *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		budget, err := s.wallet.BalanceInTx(ctx, tx, userID)
		if err != nil {
			return err
		}

		priced := make([]PricedLine, 0, len(input.Items))
		for _, item := range input.Items {
			policy, err := s.catalog.GetEffectivePriceAndPolicy(ctx, tx, item.ProductID)
			if err != nil {
				return err
			}
			if err := helpers.CheckAvailability(policy, item.Qty); err != nil {
				return err
			}
			priced = append(priced, PricedLine{Policy: *policy, Qty: item.Qty})
		}

		plan := BuildPlan(priced, budget, s.rate)

		requests := make([]reservation.Request, 0, len(plan.Lines))
		for _, line := range plan.Lines {
			requests = append(requests, reservation.Request{ProductID: line.ProductID, Qty: line.Qty})
		}
		if err := reservation.Reserve(ctx, tx, s.catalog, requests); err != nil {
			return err
		}

		order := orderFromPlan(userID, plan)
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}

		if plan.TotalEcoCoinsSpent > 0 {
			refID := order.ID.String()
			note := fmt.Sprintf("Discount on order %s", refID)
			if _, err := s.wallet.SpendInTx(ctx, tx, wallet.MutationInput{
				UserID: userID,
				Amount: plan.TotalEcoCoinsSpent,
				Source: enums.LedgerSourceOrder,
				RefID:  &refID,
				Note:   &note,
				Actor:  input.Actor,
			}); err != nil {
				return err
			}
		}

		if err := s.emitCreated(ctx, tx, order, input.Actor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order event")
		}

		result = order
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout transaction failed")
		}
		return nil, err
	}
	return result, nil
}

func orderFromPlan(userID string, plan Plan) *models.Order {
	order := &models.Order{
		ID:                 uuid.New(),
		UserID:             userID,
		Status:             enums.OrderStatusPending,
		TotalMoney:         plan.TotalMoney,
		TotalEcoCoinsSpent: plan.TotalEcoCoinsSpent,
		TotalMoneyDiscount: plan.TotalMoneyDiscount,
		TotalMoneyToPay:    plan.TotalMoneyToPay,
		CreatedAt:          time.Now().UTC(),
		Items:              make([]models.OrderItem, 0, len(plan.Lines)),
	}
	for i, line := range plan.Lines {
		order.Items = append(order.Items, models.OrderItem{
			OrderID:        order.ID,
			Position:       i,
			ProductID:      line.ProductID,
			SKU:            line.SKU,
			NameSnapshot:   line.Name,
			Qty:            line.Qty,
			UnitPriceMoney: line.UnitPrice,
			LineMoney:      line.LineMoney,
			EcoCoinsSpent:  line.EcoCoinsSpent,
			MoneyDiscount:  line.MoneyDiscount,
			MoneyToPay:     line.MoneyToPay,
		})
	}
	return order
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, order *models.Order, actor *wallet.Actor) error {
	var ref *outbox.ActorRef
	if actor != nil {
		ref = &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role}
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID.String(),
		Actor:         ref,
		Data: payloads.OrderCreatedEvent{
			OrderID:            order.ID,
			UserID:             order.UserID,
			ItemCount:          len(order.Items),
			TotalMoney:         order.TotalMoney,
			TotalEcoCoinsSpent: order.TotalEcoCoinsSpent,
			TotalMoneyDiscount: order.TotalMoneyDiscount,
			TotalMoneyToPay:    order.TotalMoneyToPay,
		},
	})
}

func outcomeFor(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	te := pkgerrors.As(err)
	if te == nil {
		return metrics.OutcomeError
	}
	switch {
	case pkgerrors.IsBusinessRule(te.Code()):
		return metrics.OutcomeBusinessRule
	case te.Code() == pkgerrors.CodeValidation || te.Code() == pkgerrors.CodeNotFound:
		return metrics.OutcomeValidation
	default:
		return metrics.OutcomeError
	}
}

func codeOf(err error) string {
	if te := pkgerrors.As(err); te != nil {
		return string(te.Code())
	}
	return string(pkgerrors.CodeInternal)
}
