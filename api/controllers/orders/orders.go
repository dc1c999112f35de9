package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ecomarket/ecocoins-backend/api/middleware"
	"github.com/ecomarket/ecocoins-backend/api/responses"
	"github.com/ecomarket/ecocoins-backend/api/validators"
	"github.com/ecomarket/ecocoins-backend/internal/checkout"
	"github.com/ecomarket/ecocoins-backend/internal/checkout/helpers"
	internalorders "github.com/ecomarket/ecocoins-backend/internal/orders"
	"github.com/ecomarket/ecocoins-backend/internal/wallet"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
	"github.com/ecomarket/ecocoins-backend/pkg/logger"
	"github.com/ecomarket/ecocoins-backend/pkg/pagination"
)

type createOrderItem struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"min=1"`
}

type createOrderRequest struct {
	Items []createOrderItem `json:"items" validate:"required,min=1,dive"`
}

func (r createOrderRequest) lines() ([]helpers.LineRequest, error) {
	lines := make([]helpers.LineRequest, 0, len(r.Items))
	for i, item := range r.Items {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid productId").WithDetails(map[string]any{"index": i})
		}
		lines = append(lines, helpers.LineRequest{ProductID: id, Qty: item.Qty})
	}
	return lines, nil
}

// Create settles a checkout for the caller and returns the PENDING order.
func Create(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := body.lines()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Execute(r.Context(), checkout.CheckoutInput{
			UserID: userID,
			Items:  lines,
			Actor:  actorFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Mine pages through the caller's orders, newest first.
func Mine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListMine(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns one of the caller's orders. Orders owned by someone else
// answer NOT_FOUND.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return "", false
	}
	return userID, true
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func actorFromRequest(r *http.Request) *wallet.Actor {
	return &wallet.Actor{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   string(middleware.RoleFromContext(r.Context())),
	}
}
