package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/auth"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/inventory"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/observability"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/packaging"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/products"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/purchases"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/reports"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/suppliers"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthHandler      *auth.Handler
	AuthMiddleware   auth.Middleware
	InventoryHandler *inventory.Handler
	PurchasesHandler *purchases.Handler
	SuppliersHandler *suppliers.Handler
	ProductsHandler  *products.Handler
	PackagingHandler *packaging.Handler
	ReportsHandler   *reports.Handler
	JobHandler       *jobs.Handler
	Pool             *pgxpool.Pool
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with storeroom defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthz(params.Pool))
	r.Handle("/metrics", params.Metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
	})

	mutatingRoles := []string{auth.RoleAdmin, auth.RoleStorekeeper}

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireAuth)
		r.Use(params.AuthMiddleware.RequireRole(mutatingRoles...))

		r.Route("/inventory", func(r chi.Router) {
			r.Route("/reports", func(r chi.Router) {
				params.ReportsHandler.MountRoutes(r)
			})
			params.InventoryHandler.MountRoutes(r)
		})
		r.Route("/purchases", func(r chi.Router) {
			params.PurchasesHandler.MountRoutes(r)
		})
		r.Route("/suppliers", func(r chi.Router) {
			params.SuppliersHandler.MountRoutes(r)
		})
		r.Route("/products", func(r chi.Router) {
			params.ProductsHandler.MountRoutes(r)
		})
		r.Route("/packaging", func(r chi.Router) {
			params.PackagingHandler.MountRoutes(r)
		})
		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	return r
}

func healthz(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			if err := pool.Ping(r.Context()); err != nil {
				http.Error(w, "degraded", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}
