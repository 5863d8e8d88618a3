package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncAnchorSubmitted()
	m.IncAnchorSubmitted()
	m.IncAnchorFailed("exhausted")
	m.IncSubmissionRetry("nonce_race")
	m.IncIntegrityFailure("content_store")
	m.IncProofVerdict("degree_v1", "rejected")
	m.IncCredentialIssued("Ed25519")
	m.AddRecordsExpired(3)
	m.SetPendingAnchors(7)
	m.ObserveConfirmationLatency(2 * time.Second)
	m.ObserveStoreLatency("put", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnchorsSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnchorsFailed.WithLabelValues("exhausted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionRetries.WithLabelValues("nonce_race")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntegrityFailures.WithLabelValues("content_store")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProofVerdicts.WithLabelValues("degree_v1", "rejected")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsExpired))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.PendingAnchors))

	n, err := testutil.GatherAndCount(reg, "vaultledger_confirmation_latency_seconds", "vaultledger_content_store_latency_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
