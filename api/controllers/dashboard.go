package controllers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/profitlens/profitlens-backend/api/responses"
	"github.com/profitlens/profitlens-backend/api/validators"
	"github.com/profitlens/profitlens-backend/internal/reports"
	"github.com/profitlens/profitlens-backend/pkg/config"
	"github.com/profitlens/profitlens-backend/pkg/db"
	"github.com/profitlens/profitlens-backend/pkg/logger"
)

// DashboardMetrics serves the profit report. The acquire-retry wrapper gives
// a cold or briefly unavailable pool a chance to come back before the
// request fails.
func DashboardMetrics(svc *reports.Service, client *db.Client, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// the dashboard sends stores[]; plain stores is accepted too
		stores := validators.ParseQueryList(r, "stores[]")
		if len(stores) == 0 {
			stores = validators.ParseQueryList(r, "stores")
		}

		params := reports.Params{
			StartDate: r.URL.Query().Get("start_date"),
			EndDate:   r.URL.Query().Get("end_date"),
			Stores:    stores,
			ShowAll:   validators.ParseQueryBool(r, "show_all"),
		}

		var report *reports.MetricsReport
		err := client.WithAcquireRetry(r.Context(), cfg.DB, logg, func(conn *gorm.DB) error {
			var computeErr error
			report, computeErr = svc.ComputeMetrics(r.Context(), params)
			return computeErr
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
