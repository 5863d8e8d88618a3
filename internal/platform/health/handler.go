// Package health reports whether the record engine and the stores behind it
// can serve traffic.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"vaultledger/pkg/platform/httputil"

	"github.com/go-chi/chi/v5"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CheckTimeout bounds each dependency check.
const CheckTimeout = 2 * time.Second

const (
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusNotReady = "not_ready"
)

// CheckFunc reports whether one dependency (record store, content store,
// ledger) is reachable. A nil return means up.
type CheckFunc func(ctx context.Context) error

type dependency struct {
	check    CheckFunc
	critical bool
}

// Handler serves the liveness, readiness and status endpoints.
type Handler struct {
	startTime   time.Time
	environment string
	logger      *slog.Logger

	mu   sync.RWMutex
	deps map[string]dependency
}

// Option configures the Handler.
type Option func(*Handler)

// WithLogger logs failed dependency checks.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func New(environment string, opts ...Option) *Handler {
	h := &Handler{
		startTime:   time.Now(),
		environment: environment,
		logger:      slog.Default(),
		deps:        make(map[string]dependency),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterCheck adds a dependency the engine cannot serve without. A failing
// critical check makes the instance not ready.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.register(name, dependency{check: check, critical: true})
}

// RegisterOptionalCheck adds a dependency whose loss degrades some operations
// but leaves reads and verification available.
func (h *Handler) RegisterOptionalCheck(name string, check CheckFunc) {
	h.register(name, dependency{check: check})
}

func (h *Handler) register(name string, dep dependency) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deps[name] = dep
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

// HandleLiveness answers 200 while the process is up; dependencies are not consulted.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status    string `json:"status"`
	Critical  bool   `json:"critical"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type ReadinessResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// HandleReadiness runs every dependency check concurrently. Any critical
// failure answers 503; optional failures answer 200 with status degraded.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.mu.RLock()
	deps := make(map[string]dependency, len(h.deps))
	for name, dep := range h.deps {
		deps[name] = dep
	}
	h.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(deps))
		wg      sync.WaitGroup
	)
	for name, dep := range deps {
		wg.Go(func() {
			result := h.run(ctx, name, dep)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		})
	}
	wg.Wait()

	response := ReadinessResponse{Status: StatusReady, Checks: results}
	for _, result := range results {
		if result.Status == "up" {
			continue
		}
		if result.Critical {
			response.Status = StatusNotReady
			break
		}
		response.Status = StatusDegraded
	}

	status := http.StatusOK
	if response.Status == StatusNotReady {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, response)
}

func (h *Handler) run(ctx context.Context, name string, dep dependency) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	start := time.Now()
	err := dep.check(ctx)
	result := CheckResult{
		Status:    "up",
		Critical:  dep.critical,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Status = "down"
		result.Error = err.Error()
		h.logger.WarnContext(ctx, "dependency check failed",
			"dependency", name,
			"critical", dep.critical,
			"latency_ms", result.LatencyMS,
			"error", err,
		)
	}
	return result
}

type StatusResponse struct {
	Service       string `json:"service"`
	Status        string `json:"status"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	Dependencies  int    `json:"dependencies"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`
}

// HandleStatus reports build and uptime details without running checks.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	deps := len(h.deps)
	h.mu.RUnlock()

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Service:       "vaultledger",
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		Dependencies:  deps,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}
