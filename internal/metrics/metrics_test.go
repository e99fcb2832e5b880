package metrics_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/readcomp/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestClientMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewClientMetrics(reg)

	m.ObserveRequest("GET", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", 200, 10*time.Millisecond)
	m.ObserveRequest("POST", 0, time.Millisecond)
	m.IncrementRefreshAttempts()
	m.RecordRefreshOutcome("success")
	m.IncrementSessionExpired()

	require.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RefreshAttemptsTotal))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RefreshOutcomesTotal.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionExpiredTotal))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var c *metrics.ClientMetrics
	var s *metrics.ServerMetrics
	require.NotPanics(t, func() {
		c.ObserveRequest("GET", 200, time.Second)
		c.IncrementRefreshAttempts()
		c.RecordRefreshOutcome("rejected")
		c.IncrementSessionExpired()
		s.ObserveHTTP("/", 200)
		s.RecordLogin(true)
		s.IncrementTokensIssued("access")
	})
}

func TestServerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewServerMetrics(reg)

	m.RecordLogin(false)
	m.RecordLogin(true)
	m.IncrementTokensIssued("access")

	require.Equal(t, 1.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TokensIssuedTotal.WithLabelValues("access")))
}
