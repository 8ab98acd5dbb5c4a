package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse-hq/gatehouse/internal/access"
	"github.com/gatehouse-hq/gatehouse/internal/grants"
	"github.com/gatehouse-hq/gatehouse/internal/groups"
	"github.com/gatehouse-hq/gatehouse/internal/observability"
	"github.com/gatehouse-hq/gatehouse/internal/roles"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	AccessHandler *access.Handler
	RolesHandler  *roles.Handler
	GroupsHandler *groups.Handler
	GrantsHandler *grants.Handler
	Pool          *pgxpool.Pool
	Metrics       *observability.Metrics
}

// NewRouter constructs the chi.Router with Gatehouse defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/access", params.AccessHandler.MountRoutes)
		api.Route("/roles", params.RolesHandler.MountRoutes)
		api.Route("/groups", params.GroupsHandler.MountRoutes)
		api.Route("/grants", params.GrantsHandler.MountRoutes)
	})

	return r
}
