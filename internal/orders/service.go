package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/ecomarket/ecocoins-backend/internal/products"
	"github.com/ecomarket/ecocoins-backend/internal/wallet"
	"github.com/ecomarket/ecocoins-backend/pkg/db"
	"github.com/ecomarket/ecocoins-backend/pkg/db/models"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
	"github.com/ecomarket/ecocoins-backend/pkg/logger"
	"github.com/ecomarket/ecocoins-backend/pkg/metrics"
	"github.com/ecomarket/ecocoins-backend/pkg/outbox"
	"github.com/ecomarket/ecocoins-backend/pkg/outbox/payloads"
	"github.com/ecomarket/ecocoins-backend/pkg/pagination"
)

// Service exposes order reads and the admin lifecycle transitions.
type Service interface {
	Get(ctx context.Context, userID string, orderID uuid.UUID) (*OrderDTO, error)
	GetAdmin(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ListMine(ctx context.Context, userID string, params pagination.Params) (*OrderList, error)
	ListAdmin(ctx context.Context, filters AdminFilters, params pagination.Params) (*OrderList, error)
	Confirm(ctx context.Context, orderID uuid.UUID, actor *wallet.Actor) (*OrderDTO, error)
	Deliver(ctx context.Context, orderID uuid.UUID, actor *wallet.Actor) (*OrderDTO, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actor *wallet.Actor) (*OrderDTO, error)
}

type ServiceParams struct {
	DB      db.TxRunner
	Repo    Repository
	Catalog product.Catalog
	Wallet  wallet.Service
	Outbox  outbox.Emitter
	Metrics *metrics.EconomyMetrics
	Logger  *logger.Logger
}

type service struct {
	db      db.TxRunner
	repo    Repository
	catalog product.Catalog
	wallet  wallet.Service
	outbox  outbox.Emitter
	metrics *metrics.EconomyMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	return &service{
		db:      params.DB,
		repo:    params.Repo,
		catalog: params.Catalog,
		wallet:  params.Wallet,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// Get returns the order only to its owner; other callers see NOT_FOUND.
func (s *service) Get(ctx context.Context, userID string, orderID uuid.UUID) (*OrderDTO, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, notFound(orderID)
	}
	dto := ToDTO(order)
	return &dto, nil
}

func (s *service) GetAdmin(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(order)
	return &dto, nil
}

func (s *service) ListMine(ctx context.Context, userID string, params pagination.Params) (*OrderList, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cursor, err := parseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByUser(ctx, userID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return toList(rows, params.Limit), nil
}

func (s *service) ListAdmin(ctx context.Context, filters AdminFilters, params pagination.Params) (*OrderList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	filters.UserID = strings.TrimSpace(filters.UserID)
	cursor, err := parseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListAdmin(ctx, filters, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return toList(rows, params.Limit), nil
}

func (s *service) Confirm(ctx context.Context, orderID uuid.UUID, actor *wallet.Actor) (*OrderDTO, error) {
	return s.transition(ctx, orderID, enums.OrderStatusConfirmed, actor, nil)
}

func (s *service) Deliver(ctx context.Context, orderID uuid.UUID, actor *wallet.Actor) (*OrderDTO, error) {
	return s.transition(ctx, orderID, enums.OrderStatusDelivered, actor, nil)
}

// Cancel restocks every line in product-id order and refunds the coins spent
// on the order. The refund is keyed by the order id so it lands at most once.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, actor *wallet.Actor) (*OrderDTO, error) {
	return s.transition(ctx, orderID, enums.OrderStatusCancelled, actor, func(tx *gorm.DB, order *models.Order) error {
		lines := make([]product.StockLine, 0, len(order.Items))
		for _, item := range order.Items {
			lines = append(lines, product.StockLine{ProductID: item.ProductID, Qty: item.Qty})
		}
		for _, line := range product.InLockOrder(lines) {
			if err := s.catalog.RestoreStock(ctx, tx, line.ProductID, line.Qty); err != nil {
				return err
			}
		}
		if order.TotalEcoCoinsSpent <= 0 {
			return nil
		}
		refID := order.ID.String()
		note := fmt.Sprintf("Refund for cancelled order %s", refID)
		_, err := s.wallet.RefundInTx(ctx, tx, wallet.MutationInput{
			UserID: order.UserID,
			Amount: order.TotalEcoCoinsSpent,
			Source: enums.LedgerSourceOrder,
			RefID:  &refID,
			Note:   &note,
			Actor:  actor,
		})
		return err
	})
}

func (s *service) transition(
	ctx context.Context,
	orderID uuid.UUID,
	to enums.OrderStatus,
	actor *wallet.Actor,
	sideEffects func(tx *gorm.DB, order *models.Order) error,
) (*OrderDTO, error) {
	var result *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		from := order.Status
		if !from.CanTransitionTo(to) {
			return stateConflict(order, to)
		}

		at := s.now().UTC()
		ok, err := repo.TransitionStatus(ctx, order.ID, []enums.OrderStatus{from}, to, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return stateConflict(order, to)
		}

		if sideEffects != nil {
			if err := sideEffects(tx, order); err != nil {
				return err
			}
		}

		if s.outbox != nil {
			var ref *outbox.ActorRef
			if actor != nil {
				ref = &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role}
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderStatusChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID.String(),
				Actor:         ref,
				Data: payloads.OrderStatusChangedEvent{
					OrderID:   order.ID,
					UserID:    order.UserID,
					From:      from,
					To:        to,
					ChangedAt: at,
				},
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order event")
			}
		}

		result, err = s.load(ctx, repo, orderID)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order transition failed")
		}
		return nil, err
	}

	s.metrics.IncTransition(string(to))
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, orderID.String())
		logCtx = s.logg.WithField(logCtx, "status", to)
		s.logg.Info(logCtx, "order status changed")
	}
	dto := ToDTO(result)
	return &dto, nil
}

func (s *service) load(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return nil, notFound(orderID)
	}
	return order, nil
}

func parseCursor(value string) (*pagination.Cursor, error) {
	cursor, err := pagination.ParseCursor(value)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return cursor, nil
}

func toList(rows []models.Order, limit int) *OrderList {
	page, next := pagination.Page(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out := make([]OrderDTO, 0, len(page))
	for i := range page {
		out = append(out, ToDTO(&page[i]))
	}
	return &OrderList{Orders: out, NextCursor: next}
}

func notFound(orderID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
		WithDetails(map[string]any{"orderId": orderID})
}

func stateConflict(order *models.Order, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
		WithDetails(map[string]any{"orderId": order.ID, "from": order.Status, "to": to})
}
