package observability

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facelyze-api/internal/ai"
)

func TestModelCallResults(t *testing.T) {
	c := NewCollector("test")

	c.ObserveModelCall("analyze_face", time.Second, nil)
	c.ObserveModelCall("analyze_face", time.Second, fmt.Errorf("decode: %w", ai.ErrInvalidOutput))
	c.ObserveModelCall("analyze_face", time.Second, ai.ErrUnavailable)
	c.ObserveModelCall("analyze_face", time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ModelCalls.WithLabelValues("analyze_face", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ModelCalls.WithLabelValues("analyze_face", "invalid_output")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ModelCalls.WithLabelValues("analyze_face", "breaker_open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ModelCalls.WithLabelValues("analyze_face", "error")))
}

func TestTokenCounters(t *testing.T) {
	c := NewCollector("test")
	c.Charged("analysis", 3)
	c.Charged("analysis", 3)
	c.Credited("purchase", 50)

	assert.Equal(t, 6.0, testutil.ToFloat64(c.TokensCharged.WithLabelValues("analysis")))
	assert.Equal(t, 50.0, testutil.ToFloat64(c.TokensCredited.WithLabelValues("purchase")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector("facelyze")
	c.ObserveHTTP("GET", "/api/v1/wallet", 200, 10*time.Millisecond)
	c.CacheLookup("history", true)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `facelyze_http_requests_total{method="GET",route="/api/v1/wallet",status="200"} 1`)
	assert.Contains(t, string(body), `facelyze_cache_lookups_total{cache="history",result="hit"} 1`)
}
