package controllers

import (
	"net/http"

	"github.com/profitlens/profitlens-backend/api/responses"
	"github.com/profitlens/profitlens-backend/internal/stats"
	"github.com/profitlens/profitlens-backend/pkg/logger"
)

func DataStats(svc *stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collected, err := svc.Collect(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, collected)
	}
}
