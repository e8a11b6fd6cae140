package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors exposed by the SDK
type Metrics struct {
	// API client metrics
	APIRequestsTotal  *prometheus.CounterVec
	TokenRefreshTotal *prometheus.CounterVec

	// Session metrics
	PermissionFallbackTotal  prometheus.Counter
	SessionExpiredSuppressed prometheus.Counter

	// Access-control metrics
	UnrankedTierTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on the given registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skedlii_api_requests_total",
				Help: "Total API requests by backend version, method and status code",
			},
			[]string{"version", "method", "status"},
		),
		TokenRefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skedlii_token_refresh_total",
				Help: "Token refresh attempts by outcome",
			},
			[]string{"outcome"},
		),
		PermissionFallbackTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "skedlii_permission_fallback_total",
				Help: "Sessions resolved through the client-computed permission fallback path",
			},
		),
		SessionExpiredSuppressed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "skedlii_session_expired_suppressed_total",
				Help: "Session-expired notifications suppressed by the one-shot latch",
			},
		),
		UnrankedTierTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skedlii_unranked_tier_comparisons_total",
				Help: "Subscription tier comparisons against tiers absent from the rank table",
			},
			[]string{"tier"},
		),
	}

	registry.MustRegister(
		m.APIRequestsTotal,
		m.TokenRefreshTotal,
		m.PermissionFallbackTotal,
		m.SessionExpiredSuppressed,
		m.UnrankedTierTotal,
	)

	return m
}

// IncAPIRequest records a completed API request. Safe on a nil receiver.
func (m *Metrics) IncAPIRequest(version, method, status string) {
	if m == nil {
		return
	}
	m.APIRequestsTotal.WithLabelValues(version, method, status).Inc()
}

// IncTokenRefresh records a refresh attempt outcome ("success" or "failure").
// Safe on a nil receiver.
func (m *Metrics) IncTokenRefresh(outcome string) {
	if m == nil {
		return
	}
	m.TokenRefreshTotal.WithLabelValues(outcome).Inc()
}

// IncPermissionFallback records a session resolved via the legacy
// client-computed permission path. Safe on a nil receiver.
func (m *Metrics) IncPermissionFallback() {
	if m == nil {
		return
	}
	m.PermissionFallbackTotal.Inc()
}

// IncSessionExpiredSuppressed records a suppressed duplicate session-expired
// notification. Safe on a nil receiver.
func (m *Metrics) IncSessionExpiredSuppressed() {
	if m == nil {
		return
	}
	m.SessionExpiredSuppressed.Inc()
}

// IncUnrankedTier records a comparison against a tier missing from the rank
// table. Safe on a nil receiver.
func (m *Metrics) IncUnrankedTier(tier string) {
	if m == nil {
		return
	}
	m.UnrankedTierTotal.WithLabelValues(tier).Inc()
}
