// Package metrics holds the Prometheus collectors for the engine. The
// collectors satisfy the narrow Metrics interfaces of the content store,
// ledger anchor, proof verifier and record service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vaultledger"

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	AnchorsSubmitted    prometheus.Counter
	AnchorsConfirmed    prometheus.Counter
	AnchorsFailed       *prometheus.CounterVec
	AnchorConflicts     prometheus.Counter
	SubmissionRetries   *prometheus.CounterVec
	ConfirmationLatency prometheus.Histogram

	IntegrityFailures *prometheus.CounterVec
	StoreLatency      *prometheus.HistogramVec

	CredentialsIssued *prometheus.CounterVec
	ProofVerdicts     *prometheus.CounterVec
	ProofLatency      prometheus.Histogram

	RecordsExpired  prometheus.Counter
	PendingAnchors  prometheus.Gauge
	EndpointLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		AnchorsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anchors_submitted_total",
			Help:      "Anchor transactions reserved and sent to the ledger",
		}),
		AnchorsConfirmed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anchors_confirmed_total",
			Help:      "Anchor transactions confirmed on-chain",
		}),
		AnchorsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anchors_failed_total",
			Help:      "Anchor transactions marked failed, labeled by reason",
		}, []string{"reason"}),
		AnchorConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anchor_conflicts_total",
			Help:      "Submissions refused because the record id is bound to other content",
		}),
		SubmissionRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_retries_total",
			Help:      "Ledger submission retries, labeled by error category",
		}, []string{"category"}),
		ConfirmationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confirmation_latency_seconds",
			Help:      "Time from submission to on-chain confirmation",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		IntegrityFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_failures_total",
			Help:      "Digest or authentication mismatches, labeled by component",
		}, []string{"component"}),
		StoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "content_store_latency_seconds",
			Help:      "Content store call latency, labeled by operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		CredentialsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credentials_issued_total",
			Help:      "Credentials signed and stored, labeled by signature algorithm",
		}, []string{"algorithm"}),
		ProofVerdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proof_verdicts_total",
			Help:      "Proof verification outcomes, labeled by circuit and verdict",
		}, []string{"circuit", "verdict"}),
		ProofLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "proof_verification_latency_seconds",
			Help:      "Proof verification latency including the backend call",
			Buckets:   prometheus.DefBuckets,
		}),
		RecordsExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_expired_total",
			Help:      "Records transitioned to expired",
		}),
		PendingAnchors: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_anchors",
			Help:      "Anchor transactions awaiting confirmation at the last worker pass",
		}),
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "endpoint_latency_seconds",
			Help:      "Latency of endpoints in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) IncAnchorSubmitted() { m.AnchorsSubmitted.Inc() }
func (m *Metrics) IncAnchorConfirmed() { m.AnchorsConfirmed.Inc() }
func (m *Metrics) IncAnchorConflict()  { m.AnchorConflicts.Inc() }

func (m *Metrics) IncAnchorFailed(reason string) {
	m.AnchorsFailed.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncSubmissionRetry(category string) {
	m.SubmissionRetries.WithLabelValues(category).Inc()
}

func (m *Metrics) ObserveConfirmationLatency(d time.Duration) {
	m.ConfirmationLatency.Observe(d.Seconds())
}

func (m *Metrics) IncIntegrityFailure(component string) {
	m.IntegrityFailures.WithLabelValues(component).Inc()
}

func (m *Metrics) ObserveStoreLatency(op string, d time.Duration) {
	m.StoreLatency.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) IncCredentialIssued(algorithm string) {
	m.CredentialsIssued.WithLabelValues(algorithm).Inc()
}

func (m *Metrics) IncProofVerdict(circuitID, verdict string) {
	m.ProofVerdicts.WithLabelValues(circuitID, verdict).Inc()
}

func (m *Metrics) ObserveProofLatency(d time.Duration) {
	m.ProofLatency.Observe(d.Seconds())
}

func (m *Metrics) AddRecordsExpired(n int) {
	m.RecordsExpired.Add(float64(n))
}

func (m *Metrics) SetPendingAnchors(n int) {
	m.PendingAnchors.Set(float64(n))
}

// ObserveEndpointLatency records the latency for a given endpoint
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
