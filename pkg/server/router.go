package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mercator-hq/ganymede/pkg/docissue"
	"mercator-hq/ganymede/pkg/investigation"
	"mercator-hq/ganymede/pkg/telemetry/health"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// AdminScopeHeader marks a request as administrative, exempting it from the
// mandatory tenant_id filter. Trusting the header is a deployment concern:
// the API expects an authenticating proxy in front of it.
const AdminScopeHeader = "X-Admin-Scope"

// maxAppendBodySize bounds an ingest request body.
const maxAppendBodySize = 10 << 20 // 10MB

// Deps carries the collaborators the router exposes.
type Deps struct {
	Store   investigation.Store
	Builder *docissue.Builder
	Health  *health.Checker
	Metrics *metrics.StoreMetrics

	// MetricsPath mounts the Prometheus endpoint when non-empty.
	MetricsPath string
}

// NewRouter assembles the HTTP API.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/investigations", handleAppend(deps))
		r.Get("/investigations", handleQuery(deps))
		r.Get("/investigations/export", handleExport(deps))
		r.Get("/investigations/{id}", handleLookup(deps))
		r.Post("/doc-issues", handleDocIssue(deps))
	})

	if deps.Health != nil {
		r.Get("/health", deps.Health.LivenessHandler())
		r.Head("/health", deps.Health.LivenessHandler())
		r.Get("/ready", deps.Health.ReadinessHandler())
		r.Head("/ready", deps.Health.ReadinessHandler())
	}

	if deps.Metrics != nil && deps.MetricsPath != "" {
		r.Method(http.MethodGet, deps.MetricsPath, deps.Metrics.Handler())
	}

	return r
}
