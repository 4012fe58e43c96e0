package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/profitlens/profitlens-backend/api/controllers"
	"github.com/profitlens/profitlens-backend/api/middleware"
	"github.com/profitlens/profitlens-backend/internal/importer"
	"github.com/profitlens/profitlens-backend/internal/marketing"
	"github.com/profitlens/profitlens-backend/internal/pricing"
	"github.com/profitlens/profitlens-backend/internal/reports"
	"github.com/profitlens/profitlens-backend/internal/stats"
	"github.com/profitlens/profitlens-backend/pkg/config"
	"github.com/profitlens/profitlens-backend/pkg/db"
	"github.com/profitlens/profitlens-backend/pkg/logger"
	"github.com/profitlens/profitlens-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	dbClient *db.Client,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	reportsSvc *reports.Service,
	reportsRepo reports.Repository,
	pricingRepo pricing.Repository,
	reconciler *pricing.Reconciler,
	resolver *pricing.Resolver,
	detector *pricing.MissingDetector,
	importerSvc *importer.Service,
	marketingSvc *marketing.Service,
	statsSvc *stats.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard/metrics", controllers.DashboardMetrics(reportsSvc, dbClient, cfg, logg))

		r.Route("/uploads", func(r chi.Router) {
			r.Post("/orders", controllers.UploadOrders(importerSvc, cfg, logg))
			r.Post("/shipping-costs", controllers.UploadShippingCosts(importerSvc, cfg, logg))
			r.Post("/price-list", controllers.UploadPriceList(reconciler, cfg, logg))
		})

		r.Route("/price-entries", func(r chi.Router) {
			r.Get("/", controllers.ListPriceEntries(pricingRepo, logg))
			r.Post("/", controllers.CreatePriceEntry(reconciler, logg))
			r.Delete("/", controllers.DeleteAllPriceEntries(pricingRepo, logg))
			r.Get("/missing", controllers.MissingPrices(detector, logg))
			r.Get("/resolve", controllers.ResolvePrice(resolver, logg))
			r.Get("/export", controllers.ExportPriceEntries(pricingRepo, logg))
			r.Get("/template", controllers.PriceListTemplate())
			r.Put("/{id}", controllers.UpdatePriceEntry(reconciler, logg))
			r.Delete("/{id}", controllers.DeletePriceEntry(pricingRepo, logg))
		})

		r.Route("/marketing-spend", func(r chi.Router) {
			r.Get("/", controllers.ListMarketingSpend(marketingSvc, logg))
			r.Post("/", controllers.CreateMarketingSpend(marketingSvc, logg))
			r.Delete("/", controllers.DeleteAllMarketingSpend(marketingSvc, logg))
			r.Delete("/{id}", controllers.DeleteMarketingSpend(marketingSvc, logg))
		})

		r.Delete("/orders", controllers.DeleteAllOrders(importerSvc, logg))
		r.Delete("/shipping-costs", controllers.DeleteAllShippingCosts(importerSvc, logg))

		r.Get("/suppliers", controllers.ListSuppliers(pricingRepo, logg))
		r.Get("/pickup-warehouses", controllers.ListPickupWarehouses(reportsRepo, logg))
		r.Get("/products-by-supplier", controllers.ProductsBySupplier(reportsRepo, logg))

		r.Get("/data-stats", controllers.DataStats(statsSvc, logg))
	})

	return r
}
