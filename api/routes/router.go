package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicware/medipos-backend/api/controllers"
	"github.com/clinicware/medipos-backend/api/middleware"
	"github.com/clinicware/medipos-backend/internal/auth"
	"github.com/clinicware/medipos-backend/internal/billing"
	"github.com/clinicware/medipos-backend/internal/customers"
	"github.com/clinicware/medipos-backend/internal/inventory"
	"github.com/clinicware/medipos-backend/internal/reports"
	"github.com/clinicware/medipos-backend/internal/staff"
	"github.com/clinicware/medipos-backend/pkg/auth/session"
	"github.com/clinicware/medipos-backend/pkg/config"
	"github.com/clinicware/medipos-backend/pkg/enums"
	"github.com/clinicware/medipos-backend/pkg/logger"
	"github.com/clinicware/medipos-backend/pkg/metrics"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	SessionChecker session.AccessSessionChecker
	AuthService    auth.Service
	StaffService   *staff.Service
	Inventory      *inventory.Service
	Billing        *billing.Service
	Reports        *reports.Service
	Customers      *customers.Service
	HealthDeps     map[string]controllers.Pinger
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsGather  prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthDeps))
	})

	if deps.MetricsGather != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGather, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Inventory, logg))
			r.Post("/", controllers.ProductCreate(deps.Inventory, logg))
			r.Get("/categories", controllers.ProductCategories(deps.Inventory, logg))
			r.Post("/bulk", controllers.ProductBulkImport(deps.Inventory, logg))
			r.Get("/export", controllers.ProductExportCSV(deps.Inventory, logg))
			r.Get("/{productId}", controllers.ProductGet(deps.Inventory, logg))
			r.Get("/{productId}/partials", controllers.ProductPartialSales(deps.Inventory, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(deps.Inventory, logg))
			r.Delete("/{productId}", controllers.ProductDelete(deps.Inventory, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Billing, deps.Inventory, logg))

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.SaleList(deps.Billing, logg))
			r.Get("/{saleId}", controllers.SaleGet(deps.Billing, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/monthly", controllers.ReportMonthlySummaries(deps.Reports, logg))
			r.Get("/top-products", controllers.ReportTopProducts(deps.Reports, logg))
			r.Get("/export/{format}", controllers.ReportExport(deps.Reports, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(deps.Customers, logg))
			r.Get("/{customerId}", controllers.CustomerGet(deps.Customers, logg))
		})

		r.Route("/staff", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Get("/", controllers.StaffList(deps.StaffService, logg))
			r.Post("/", controllers.StaffCreate(deps.StaffService, logg))
			r.Post("/{staffId}/block", controllers.StaffBlock(deps.StaffService, logg))
			r.Post("/{staffId}/unblock", controllers.StaffUnblock(deps.StaffService, logg))
			r.Delete("/{staffId}", controllers.StaffDelete(deps.StaffService, logg))
		})
	})

	return r
}
