package request

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultledger/pkg/requestcontext"
)

func TestRequestID(t *testing.T) {
	capture := func(id *string) http.Handler {
		return RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*id = requestcontext.RequestID(r.Context())
		}))
	}

	t.Run("generates uuid without header", func(t *testing.T) {
		var got string
		w := httptest.NewRecorder()
		capture(&got).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/records/r1", nil))
		assert.Len(t, got, 36)
		assert.Equal(t, got, w.Header().Get("X-Request-ID"))
	})

	t.Run("keeps valid client id", func(t *testing.T) {
		var got string
		req := httptest.NewRequest(http.MethodGet, "/records/r1", nil)
		req.Header.Set("X-Request-ID", "batch-7.retry_2")
		capture(&got).ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "batch-7.retry_2", got)
	})

	t.Run("replaces unsafe client ids", func(t *testing.T) {
		for _, bad := range []string{"a\nb", "<script>", strings.Repeat("x", MaxRequestIDLength+1)} {
			var got string
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", bad)
			capture(&got).ServeHTTP(httptest.NewRecorder(), req)
			assert.NotEqual(t, bad, got)
			assert.Len(t, got, 36)
		}
	})
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/records", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestContentTypeJSON(t *testing.T) {
	ok := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		method, ct string
		want       int
	}{
		{http.MethodPost, "application/json; charset=utf-8", http.StatusNoContent},
		{http.MethodPost, "", http.StatusNoContent},
		{http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodGet, "text/plain", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/credentials", nil)
		if tt.ct != "" {
			req.Header.Set("Content-Type", tt.ct)
		}
		w := httptest.NewRecorder()
		ok.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code, "%s %q", tt.method, tt.ct)
	}
}

type latencies map[string]int

func (l latencies) ObserveEndpointLatency(endpoint string, _ float64) { l[endpoint]++ }

func TestLatencyUsesPattern(t *testing.T) {
	seen := latencies{}
	h := Latency(seen, func(*http.Request) string { return "/records/{id}" })(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/records/abc", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/records/def", nil))

	require.Len(t, seen, 1)
	assert.Equal(t, 2, seen["/records/{id}"])
}

func TestBodyLimit(t *testing.T) {
	var reached bool
	h := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("declared length over the cap never reaches the handler", func(t *testing.T) {
		reached = false
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/records", strings.NewReader("too long")))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.False(t, reached)
		assert.JSONEq(t, `{"error":"payload_too_large","error_description":"request body exceeds 4 bytes"}`, w.Body.String())
	})

	t.Run("unknown length is cut off while reading", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader("too long"))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.True(t, reached)
	})

	t.Run("body within the cap passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/records", strings.NewReader("{}")))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
