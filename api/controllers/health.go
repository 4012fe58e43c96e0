package controllers

import (
	"net/http"

	"github.com/profitlens/profitlens-backend/api/responses"
	"github.com/profitlens/profitlens-backend/pkg/config"
	"github.com/profitlens/profitlens-backend/pkg/db"
	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
	"github.com/profitlens/profitlens-backend/pkg/logger"
	"github.com/profitlens/profitlens-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ProfitLens-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness: the database must answer, redis only when
// it is configured.
func HealthReady(cfg *config.Config, database db.Pinger, cache *redis.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ProfitLens-Env", cfg.App.Env)

		if err := database.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
			return
		}

		components := map[string]string{"database": "ok"}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				components["redis"] = "down"
			} else {
				components["redis"] = "ok"
			}
		}

		responses.WriteSuccess(w, map[string]any{
			"status":     "ready",
			"components": components,
		})
	}
}
