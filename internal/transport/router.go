package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pitabwire/msaada/internal/config"
	"github.com/pitabwire/msaada/internal/observability"
	"github.com/pitabwire/msaada/internal/routes"
	"github.com/pitabwire/msaada/model"
)

// Dependencies carries everything the router needs. Authenticate is the JWT
// middleware; tests substitute a stub that injects claims directly.
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Authenticate func(http.Handler) http.Handler
	Capabilities model.CapabilityResolver
	Handler      *Handler
	Policy       *routes.Policy
	Readiness    observability.ReadinessChecks
}

// NewRouter assembles the full middleware chain and route tree.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(Recovery(logger))
	r.Use(RequestID)
	r.Use(SecurityHeaders)
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(observability.TracingMiddleware)

	// Unauthenticated operational endpoints.
	r.Get("/healthz", observability.HandleHealth())
	r.Get("/readyz", observability.HandleReady(deps.Readiness))
	if deps.Config.Observability.Metrics.Enabled && deps.Metrics != nil {
		r.Method(http.MethodGet, deps.Config.Observability.Metrics.Path, observability.Handler())
	}

	h := deps.Handler

	r.Route("/api", func(api chi.Router) {
		if deps.Authenticate != nil {
			api.Use(deps.Authenticate)
		}
		api.Use(BuildRequestContext)
		api.Use(ResolveCapabilities(deps.Capabilities, logger))
		api.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		api.Use(RequestLogging(logger))
		if deps.Metrics != nil {
			api.Use(deps.Metrics.MetricsMiddleware)
		}

		api.Get("/navigation", h.Navigation)

		api.Route("/requests", func(rr chi.Router) {
			rr.Use(RequireRoute(deps.Policy, "requests", deps.Metrics, logger))
			rr.Post("/", h.CreateRequest)
			rr.Get("/", h.ListRequests)
			rr.Get("/{id}", h.GetRequest)
			rr.Post("/{id}/transition", h.TransitionRequest)
			rr.Get("/{id}/history", h.RequestHistory)
			rr.Get("/{id}/transitions", h.AvailableTransitions)
		})

		api.Route("/visits", func(vr chi.Router) {
			vr.Use(RequireRoute(deps.Policy, "field-visits", deps.Metrics, logger))
			vr.Post("/", h.CreateVisit)
			vr.Get("/", h.ListVisits)
			vr.Get("/{id}", h.GetVisit)
			vr.Post("/{id}/reschedule", h.RescheduleVisit)
			vr.Post("/{id}/start", h.StartVisit)
			vr.Post("/{id}/report", h.SubmitVisitReport)
			vr.Post("/{id}/cancel", h.CancelVisit)
		})

		api.Route("/roles", func(ro chi.Router) {
			ro.Use(RequireRoute(deps.Policy, "role-administration", deps.Metrics, logger))
			ro.Get("/", h.ListRoles)
			ro.Get("/{key}", h.GetRole)
		})
	})

	return r
}
