package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kasirku/ledger/internal/accounting"
	"github.com/kasirku/ledger/internal/observability"
	"github.com/kasirku/ledger/internal/opname"
	"github.com/kasirku/ledger/internal/platform/httpx"
	"github.com/kasirku/ledger/jobs"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AccountingHandler *accounting.Handler
	OpnameHandler     *opname.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
	// Ready lists the stores checked by /readyz, keyed by name.
	Ready map[string]Pinger
}

// NewRouter constructs the chi.Router with ledger defaults.
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
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(params.Logger, params.Ready))

	perMinute := 0
	if params.Config != nil {
		perMinute = params.Config.RateLimitPerMin
	}
	writeLimit := WriteLimiter(perMinute)

	if params.AccountingHandler != nil {
		if params.AccountingHandler.WriteLimit == nil {
			params.AccountingHandler.WriteLimit = writeLimit
		}
		r.Route("/ledger", params.AccountingHandler.MountRoutes)
	}
	if params.OpnameHandler != nil {
		r.Route("/opname", func(r chi.Router) {
			r.Use(writeLimit)
			params.OpnameHandler.MountRoutes(r)
		})
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

func readiness(logger *slog.Logger, stores map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := map[string]string{}
		code := http.StatusOK
		for name, p := range stores {
			if p == nil {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				logger.Warn("readiness check failed", slog.String("store", name), slog.Any("error", err))
				status[name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "up"
		}
		httpx.JSON(w, code, status)
	}
}
