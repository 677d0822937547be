package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stockgate/stockgate/internal/extraction"
	"github.com/stockgate/stockgate/internal/inward"
	"github.com/stockgate/stockgate/internal/labels"
	"github.com/stockgate/stockgate/internal/observability"
	"github.com/stockgate/stockgate/internal/shared"
	"github.com/stockgate/stockgate/internal/transferin"
	"github.com/stockgate/stockgate/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	ExtractionHandler *extraction.Handler
	InwardHandler     *inward.Handler
	TransferInHandler *transferin.Handler
	LabelHandler      *labels.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Stockgate defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/extraction", params.ExtractionHandler.MountRoutes)
	r.Route("/inward", params.InwardHandler.MountRoutes)
	r.Route("/transferin", func(r chi.Router) {
		params.TransferInHandler.MountRoutes(r)
		if params.LabelHandler != nil {
			params.LabelHandler.MountRoutes(r)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
