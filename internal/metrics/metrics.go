package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClientMetrics counts what the API client does on the wire.
type ClientMetrics struct {
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      prometheus.Histogram
	RefreshAttemptsTotal prometheus.Counter
	RefreshOutcomesTotal *prometheus.CounterVec
	SessionExpiredTotal  prometheus.Counter
}

// NewClientMetrics registers the client collectors with reg. A nil reg uses
// the default registerer.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &ClientMetrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "readcomp_client_requests_total",
			Help: "Total number of API requests issued, by method and status code",
		}, []string{"method", "status"}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "readcomp_client_request_duration_seconds",
			Help:    "Round trip time of API requests",
			Buckets: prometheus.DefBuckets,
		}),
		RefreshAttemptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "readcomp_client_refresh_attempts_total",
			Help: "Total number of token refresh calls sent to the server",
		}),
		RefreshOutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "readcomp_client_refresh_outcomes_total",
			Help: "Token refresh results, by outcome",
		}, []string{"outcome"}),
		SessionExpiredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "readcomp_client_session_expired_total",
			Help: "Total number of sessions ended because authorization could not be restored",
		}),
	}
}

// ObserveRequest records one HTTP round trip. status is 0 for transport failures.
func (m *ClientMetrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(method, label).Inc()
	m.RequestDuration.Observe(elapsed.Seconds())
}

func (m *ClientMetrics) IncrementRefreshAttempts() {
	if m == nil {
		return
	}
	m.RefreshAttemptsTotal.Inc()
}

// RecordRefreshOutcome is one of "success", "rejected", "transport", "cleared".
func (m *ClientMetrics) RecordRefreshOutcome(outcome string) {
	if m == nil {
		return
	}
	m.RefreshOutcomesTotal.WithLabelValues(outcome).Inc()
}

func (m *ClientMetrics) IncrementSessionExpired() {
	if m == nil {
		return
	}
	m.SessionExpiredTotal.Inc()
}

// ServerMetrics instruments the development API server.
type ServerMetrics struct {
	HTTPRequestsTotal *prometheus.CounterVec
	LoginsTotal       *prometheus.CounterVec
	TokensIssuedTotal *prometheus.CounterVec
}

func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &ServerMetrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "readcomp_devserver_http_requests_total",
			Help: "Total number of HTTP requests served, by route and status code",
		}, []string{"route", "status"}),
		LoginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "readcomp_devserver_logins_total",
			Help: "Login attempts, by result",
		}, []string{"result"}),
		TokensIssuedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "readcomp_devserver_tokens_issued_total",
			Help: "Tokens minted, by token type",
		}, []string{"type"}),
	}
}

func (m *ServerMetrics) ObserveHTTP(route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (m *ServerMetrics) RecordLogin(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

func (m *ServerMetrics) IncrementTokensIssued(tokenType string) {
	if m == nil {
		return
	}
	m.TokensIssuedTotal.WithLabelValues(tokenType).Inc()
}
