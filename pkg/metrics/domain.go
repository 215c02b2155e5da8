package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SalesMetrics records checkout outcomes and revenue.
type SalesMetrics struct {
	committed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	revenue   *prometheus.CounterVec
}

// NewSalesMetrics registers the checkout metrics on the provided registerer.
func NewSalesMetrics(reg prometheus.Registerer) *SalesMetrics {
	if reg == nil {
		return &SalesMetrics{}
	}
	committed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_committed_total",
		Help: "Successfully committed checkouts.",
	}, []string{"tenant"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_failed_total",
		Help: "Checkout attempts that aborted.",
	}, []string{"tenant", "code"})
	revenue := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_revenue_total",
		Help: "Revenue committed through checkout, in currency units.",
	}, []string{"tenant"})
	reg.MustRegister(committed, failed, revenue)
	return &SalesMetrics{
		committed: committed,
		failed:    failed,
		revenue:   revenue,
	}
}

// IncCommitted records one successful checkout with its total amount.
func (s *SalesMetrics) IncCommitted(tenant string, amount float64) {
	if s == nil || s.committed == nil {
		return
	}
	tenant = normalizeLabel(tenant)
	s.committed.WithLabelValues(tenant).Inc()
	s.revenue.WithLabelValues(tenant).Add(amount)
}

// IncFailed records one aborted checkout attempt by failure code.
func (s *SalesMetrics) IncFailed(tenant, code string) {
	if s == nil || s.failed == nil {
		return
	}
	s.failed.WithLabelValues(normalizeLabel(tenant), normalizeLabel(code)).Inc()
}
