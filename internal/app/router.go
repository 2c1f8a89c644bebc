package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/warelog/warelog/internal/auth"
	"github.com/warelog/warelog/internal/gatelog"
	"github.com/warelog/warelog/internal/masterdata"
	"github.com/warelog/warelog/internal/observability"
	"github.com/warelog/warelog/internal/stock"
	"github.com/warelog/warelog/internal/transactions"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	Metrics             *observability.Metrics
	AuthService         *auth.Service
	AuthHandler         *auth.Handler
	MasterDataHandler   *masterdata.Handler
	StockHandler        *stock.Handler
	TransactionsHandler *transactions.Handler
	GateLogHandler      *gatelog.Handler
}

// NewRouter constructs the chi.Router. Everything under /api/v1 requires a
// bearer token except login.
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
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		params.AuthHandler.MountPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthService.RequireAuth)

			params.AuthHandler.MountProtectedRoutes(r)
			params.MasterDataHandler.MountRoutes(r)
			params.StockHandler.MountRoutes(r)
			params.TransactionsHandler.MountRoutes(r)
			params.GateLogHandler.MountRoutes(r)
		})
	})

	return r
}
