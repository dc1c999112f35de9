package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomarket/ecocoins-backend/api/middleware"
	"github.com/ecomarket/ecocoins-backend/internal/ledger"
	"github.com/ecomarket/ecocoins-backend/internal/wallet"
	"github.com/ecomarket/ecocoins-backend/pkg/config"
	"github.com/ecomarket/ecocoins-backend/pkg/db/dbtest"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
	"github.com/ecomarket/ecocoins-backend/pkg/outbox"
)

func newWalletService(t *testing.T) wallet.Service {
	t.Helper()
	client, conn := dbtest.OpenClient(t, "walletctl")
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	svc, err := wallet.NewService(wallet.ServiceParams{
		DB:          client,
		Repo:        wallet.NewRepository(conn),
		Ledger:      ledgerSvc,
		Outbox:      outbox.NewService(outbox.NewRepository(conn), nil),
		RecentLimit: 20,
	})
	require.NoError(t, err)
	return svc
}

func adminRequest(method, target, userID, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rc := chi.NewRouteContext()
	rc.URLParams.Add("userId", userID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	ctx = middleware.WithUserID(ctx, "admin-1")
	ctx = middleware.WithRole(ctx, enums.UserRoleAdmin)
	return req.WithContext(ctx)
}

type mutationEnvelope struct {
	Data walletMutationResponse `json:"data"`
}

func decodeMutation(t *testing.T, resp *httptest.ResponseRecorder) walletMutationResponse {
	t.Helper()
	var env mutationEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env.Data
}

func TestWalletMeEmptyForNewUser(t *testing.T) {
	svc := newWalletService(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/me", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "fresh-user"))
	resp := httptest.NewRecorder()

	WalletMe(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var env struct {
		Data wallet.View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	assert.Zero(t, env.Data.EcoCoinsBalance)
	assert.Empty(t, env.Data.RecentLedger)
}

func TestWalletMeRequiresUser(t *testing.T) {
	resp := httptest.NewRecorder()
	WalletMe(newWalletService(t), nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminWalletEarnThenReadBack(t *testing.T) {
	svc := newWalletService(t)
	body := `{"amount":150,"source":"RECYCLING","refId":"drop-7","note":"  bottles  "}`

	resp := httptest.NewRecorder()
	AdminWalletEarn(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/", "user-1", body))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	first := decodeMutation(t, resp)
	assert.True(t, first.Applied)
	assert.EqualValues(t, 150, first.EcoCoinsBalance)
	assert.NotEmpty(t, first.EntryID)

	resp = httptest.NewRecorder()
	AdminWalletEarn(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/", "user-1", body))
	require.Equal(t, http.StatusOK, resp.Code)
	replay := decodeMutation(t, resp)
	assert.False(t, replay.Applied)
	assert.EqualValues(t, 150, replay.EcoCoinsBalance)

	view, err := svc.Read(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, view.RecentLedger, 1)
	require.NotNil(t, view.RecentLedger[0].Note)
	assert.Equal(t, "bottles", *view.RecentLedger[0].Note)
}

func TestAdminWalletEarnValidatesBody(t *testing.T) {
	svc := newWalletService(t)
	for _, body := range []string{`{"amount":0,"source":"X"}`, `{"amount":5}`, `{"amount":5,"source":"X","extra":1}`} {
		resp := httptest.NewRecorder()
		AdminWalletEarn(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/", "user-1", body))
		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
	}
}

func TestAdminWalletAdjustCannotGoNegative(t *testing.T) {
	svc := newWalletService(t)

	resp := httptest.NewRecorder()
	AdminWalletAdjust(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/", "user-1", `{"delta":40,"source":"SUPPORT","refId":"t-1"}`))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.EqualValues(t, 40, decodeMutation(t, resp).EcoCoinsBalance)

	resp = httptest.NewRecorder()
	AdminWalletAdjust(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/", "user-1", `{"delta":-50,"source":"SUPPORT","refId":"t-2"}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "INSUFFICIENT_BALANCE")

	view, err := svc.Read(context.Background(), "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 40, view.EcoCoinsBalance)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, stubPinger{}, stubPinger{}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "dev", resp.Header().Get("X-EcoMarket-Env"))

	resp = httptest.NewRecorder()
	HealthReady(cfg, nil, stubPinger{}, stubPinger{err: errors.New("down")}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), "DEPENDENCY_ERROR")
}

func TestHealthLive(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthLive(&config.Config{}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}
