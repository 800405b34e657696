package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/covenant-hq/covenant/internal/finance"
	"github.com/covenant-hq/covenant/internal/observability"
	"github.com/covenant-hq/covenant/internal/tenant"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	FinanceHandler *finance.Handler
	TenantHandler  *tenant.Handler
	TenantService  *tenant.Service
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Covenant defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Get("/metrics", params.Metrics.Handler().ServeHTTP)
	}

	r.Route("/api/tenants", func(r chi.Router) {
		if params.TenantHandler != nil {
			params.TenantHandler.MountRoutes(r)
		}
		r.Route("/{tenantID}/finance", func(r chi.Router) {
			r.Use(params.TenantService.Middleware)
			params.FinanceHandler.MountRoutes(r)
		})
	})

	return r
}
