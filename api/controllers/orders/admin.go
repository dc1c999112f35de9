package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ecomarket/ecocoins-backend/api/responses"
	"github.com/ecomarket/ecocoins-backend/api/validators"
	internalorders "github.com/ecomarket/ecocoins-backend/internal/orders"
	"github.com/ecomarket/ecocoins-backend/internal/wallet"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
	"github.com/ecomarket/ecocoins-backend/pkg/logger"
)

// AdminList pages through all orders, optionally filtered by status and user.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := adminFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListAdmin(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetAdmin(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type transitionFunc func(ctx context.Context, orderID uuid.UUID, actor *wallet.Actor) (*internalorders.OrderDTO, error)

func AdminConfirm(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc.Confirm, logg)
}

func AdminDeliver(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc.Deliver, logg)
}

// AdminCancel cancels a PENDING or CONFIRMED order, restocking its lines and
// refunding any coins spent on it.
func AdminCancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc.Cancel, logg)
}

func transition(fn transitionFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}
		order, err := fn(ctx, orderID, actorFromRequest(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func adminFilters(r *http.Request) (internalorders.AdminFilters, error) {
	var filters internalorders.AdminFilters
	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(strings.ToUpper(raw))
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").WithDetails(map[string]any{"status": raw})
		}
		filters.Status = &status
	}
	filters.UserID = strings.TrimSpace(query.Get("userId"))
	return filters, nil
}
