package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ecomarket/ecocoins-backend/internal/checkout"
	"github.com/ecomarket/ecocoins-backend/internal/ledger"
	"github.com/ecomarket/ecocoins-backend/internal/orders"
	product "github.com/ecomarket/ecocoins-backend/internal/products"
	"github.com/ecomarket/ecocoins-backend/internal/wallet"
	"github.com/ecomarket/ecocoins-backend/pkg/config"
	"github.com/ecomarket/ecocoins-backend/pkg/db"
	"github.com/ecomarket/ecocoins-backend/pkg/logger"
	"github.com/ecomarket/ecocoins-backend/pkg/metrics"
	"github.com/ecomarket/ecocoins-backend/pkg/money"
	"github.com/ecomarket/ecocoins-backend/pkg/outbox"
)

const shutdownTimeout = 15 * time.Second

// Services bundles the domain services the HTTP layer depends on.
type Services struct {
	Wallet   wallet.Service
	Orders   orders.Service
	Checkout checkout.Service
	Catalog  *product.Service
}

// NewServices wires the wallet, order and checkout services on one database client.
func NewServices(cfg *config.Config, client *db.Client, econ *metrics.EconomyMetrics, logg *logger.Logger) (*Services, error) {
	rate, err := money.NewRate(cfg.Economy.CoinValueUSD)
	if err != nil {
		return nil, fmt.Errorf("coin rate: %w", err)
	}

	conn := client.DB()
	events := outbox.NewService(outbox.NewRepository(conn), logg)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	walletSvc, err := wallet.NewService(wallet.ServiceParams{
		DB:          client,
		Repo:        wallet.NewRepository(conn),
		Ledger:      ledgerSvc,
		Outbox:      events,
		Metrics:     econ,
		Logger:      logg,
		RecentLimit: cfg.Economy.RecentLedgerLimit,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := product.NewService(product.NewRepository(conn), cfg.Economy.DefaultMaxDiscountPct)
	if err != nil {
		return nil, err
	}

	ordersRepo := orders.NewRepository(conn)
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		DB:      client,
		Repo:    ordersRepo,
		Catalog: catalog,
		Wallet:  walletSvc,
		Outbox:  events,
		Metrics: econ,
		Logger:  logg,
	})
	if err != nil {
		return nil, err
	}

	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		DB:      client,
		Catalog: catalog,
		Wallet:  walletSvc,
		Orders:  ordersRepo,
		Outbox:  events,
		Rate:    rate,
		Metrics: econ,
		Logger:  logg,
	})
	if err != nil {
		return nil, err
	}

	return &Services{
		Wallet:   walletSvc,
		Orders:   ordersSvc,
		Checkout: checkoutSvc,
		Catalog:  catalog,
	}, nil
}

// NewServer returns an http.Server with conservative timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Serve runs srv until ctx is cancelled, then drains in-flight requests.
func Serve(ctx context.Context, srv *http.Server, logg *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
