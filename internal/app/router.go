package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/loomledger/loomledger/internal/costing"
	"github.com/loomledger/loomledger/internal/ledger"
	"github.com/loomledger/loomledger/internal/observability"
	"github.com/loomledger/loomledger/internal/production"
	"github.com/loomledger/loomledger/internal/purchases"
	"github.com/loomledger/loomledger/internal/reports"
	"github.com/loomledger/loomledger/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	LedgerHandler     *ledger.Handler
	CostingHandler    *costing.Handler
	PurchasesHandler  *purchases.Handler
	ProductionHandler *production.Handler
	ReportsHandler    *reports.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with loomledger defaults.
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

	r.Route("/ledger", params.LedgerHandler.MountRoutes)
	if params.CostingHandler != nil {
		r.Route("/costing", params.CostingHandler.MountRoutes)
	}
	if params.PurchasesHandler != nil {
		r.Route("/purchases", params.PurchasesHandler.MountRoutes)
	}
	if params.ProductionHandler != nil {
		r.Route("/production", params.ProductionHandler.MountRoutes)
	}
	if params.ReportsHandler != nil {
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
