// Package httptransport assembles the public HTTP surface: middleware stack,
// health and metrics endpoints, and the authenticated record API.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	jwttoken "vaultledger/internal/jwt_token"
	"vaultledger/internal/platform/health"
	"vaultledger/internal/record/handler"
	"vaultledger/pkg/platform/middleware/auth"
	"vaultledger/pkg/platform/middleware/request"
	"vaultledger/pkg/platform/middleware/requesttime"
)

// RouterConfig carries the handlers and settings the router mounts.
type RouterConfig struct {
	Records        *handler.Handler
	Health         *health.Handler
	Tokens         auth.JWTValidator
	Metrics        http.Handler
	Latency        request.LatencyObserver
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Logger         *slog.Logger
}

// NewRouter wires all public endpoints with middleware. Health and metrics
// are unauthenticated; everything under /v1 requires an actor token and
// credential issuance additionally requires the issuer role.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(cfg.Logger))
	r.Use(requesttime.Middleware)
	r.Use(request.Latency(cfg.Latency, routePattern))

	cfg.Health.Register(r)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(request.Timeout(cfg.RequestTimeout))
		r.Use(request.ContentTypeJSON)
		r.Use(request.BodyLimit(cfg.MaxBodyBytes))
		r.Use(auth.RequireAuth(cfg.Tokens, cfg.Logger))

		cfg.Records.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(jwttoken.RoleIssuer, cfg.Logger))
			cfg.Records.RegisterIssuer(r)
		})
	})

	return r
}

// routePattern reports the matched chi pattern so latency is not keyed by
// record id.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}
