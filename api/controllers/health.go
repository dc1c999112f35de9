package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/ecomarket/ecocoins-backend/api/responses"
	"github.com/ecomarket/ecocoins-backend/pkg/config"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
	"github.com/ecomarket/ecocoins-backend/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger is the readiness probe surface shared by the DB and redis clients.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-EcoMarket-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and reports the first failure as
// DEPENDENCY_ERROR.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger, redisPinger Pinger) http.HandlerFunc {
	deps := []struct {
		name   string
		pinger Pinger
	}{
		{"database", dbPinger},
		{"redis", redisPinger},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-EcoMarket-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{}
		for _, dep := range deps {
			if dep.pinger == nil {
				continue
			}
			if err := dep.pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, dep.name+" unavailable").
					WithDetails(map[string]any{"dependency": dep.name}))
				return
			}
			checks[dep.name] = "ok"
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
