// Package httptransport assembles the HTTP router. It owns the middleware
// chain and the operational endpoints; domain routes are mounted by the
// handlers that own them.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	compliancehandler "conforma/internal/compliance/handler"
	authmw "conforma/pkg/platform/middleware/auth"
	"conforma/pkg/platform/middleware/metadata"
	"conforma/pkg/platform/middleware/request"
	"conforma/pkg/platform/middleware/requesttime"
)

const requestTimeout = 30 * time.Second

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps collects everything the router needs. Nil health checkers are
// skipped, so a deployment without Redis still reports healthy.
type Deps struct {
	Logger       *slog.Logger
	JWTValidator authmw.JWTValidator
	Compliance   *compliancehandler.Handler
	Checks       map[string]HealthChecker
}

// NewRouter builds the service router. Request ID, client metadata, and
// request time run before auth so rejected requests still correlate in logs.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/healthz", handleHealth(deps.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(deps.JWTValidator, deps.Logger))
		deps.Compliance.Register(r)
	})

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(ctx); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unhealthy","failed":"` + name + `"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
