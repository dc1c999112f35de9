package controllers

import (
	"net/http"

	"github.com/ecomarket/ecocoins-backend/api/middleware"
	"github.com/ecomarket/ecocoins-backend/api/responses"
	"github.com/ecomarket/ecocoins-backend/api/validators"
	"github.com/ecomarket/ecocoins-backend/internal/wallet"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
	"github.com/ecomarket/ecocoins-backend/pkg/logger"
)

const (
	maxNoteLength   = 255
	maxSourceLength = 64
)

// WalletMe returns the caller's balance and most recent ledger entries.
func WalletMe(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		view, err := svc.Read(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type walletEarnRequest struct {
	Amount int64   `json:"amount" validate:"gt=0"`
	Source string  `json:"source" validate:"required,max=64"`
	RefID  *string `json:"refId" validate:"omitempty,max=128"`
	Note   *string `json:"note"`
}

type walletAdjustRequest struct {
	Delta  int64   `json:"delta" validate:"ne=0"`
	Source string  `json:"source" validate:"required,max=64"`
	RefID  *string `json:"refId" validate:"omitempty,max=128"`
	Note   *string `json:"note"`
}

type walletMutationResponse struct {
	UserID          string `json:"userId"`
	EcoCoinsBalance int64  `json:"ecoCoinsBalance"`
	Applied         bool   `json:"applied"`
	EntryID         string `json:"entryId,omitempty"`
}

// AdminWalletEarn credits coins to a user. A repeated (source, refId) pair is
// acknowledged with applied=false and leaves the balance unchanged.
func AdminWalletEarn(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.RequireParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body walletEarnRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Earn(r.Context(), wallet.MutationInput{
			UserID: userID,
			Amount: body.Amount,
			Source: validators.SanitizeString(body.Source, maxSourceLength),
			RefID:  body.RefID,
			Note:   validators.SanitizeOptional(body.Note, maxNoteLength),
			Actor:  actorFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toMutationResponse(userID, result))
	}
}

// AdminWalletAdjust applies a signed correction that may not drive the
// balance below zero.
func AdminWalletAdjust(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.RequireParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body walletAdjustRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Adjust(r.Context(), wallet.AdjustInput{
			UserID: userID,
			Delta:  body.Delta,
			Source: validators.SanitizeString(body.Source, maxSourceLength),
			RefID:  body.RefID,
			Note:   validators.SanitizeOptional(body.Note, maxNoteLength),
			Actor:  actorFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toMutationResponse(userID, result))
	}
}

func toMutationResponse(userID string, result *wallet.Result) walletMutationResponse {
	resp := walletMutationResponse{
		UserID:          userID,
		EcoCoinsBalance: result.Balance,
		Applied:         result.Applied,
	}
	if result.EntryID != nil {
		resp.EntryID = result.EntryID.String()
	}
	return resp
}

func actorFromRequest(r *http.Request) *wallet.Actor {
	return &wallet.Actor{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   string(middleware.RoleFromContext(r.Context())),
	}
}
