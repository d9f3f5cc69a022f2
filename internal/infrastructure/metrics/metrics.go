// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PartnersClassified *prometheus.CounterVec
	TemplateRejections *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
// Pass prometheus.DefaultRegisterer in the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PartnersClassified: f.NewCounterVec(prometheus.CounterOpts{
			Name: "physio_partners_classified_total",
			Help: "Partner create/write payloads flagged as physiotherapy partners",
		}, []string{"op"}),
		TemplateRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "physio_template_delete_rejected_total",
			Help: "Deletions refused because the record is its model's template",
		}, []string{"table"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "physio_http_request_duration_seconds",
			Help:    "HTTP request duration by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

// PartnerClassified implements partner.Observer.
func (m *Metrics) PartnerClassified(op string) {
	m.PartnersClassified.WithLabelValues(op).Inc()
}

// TemplateDeleteRejected implements physio.RejectObserver.
func (m *Metrics) TemplateDeleteRejected(table string) {
	m.TemplateRejections.WithLabelValues(table).Inc()
}

// ObserveRequest records one HTTP request. Call with time.Now() taken at its start.
func (m *Metrics) ObserveRequest(method, route string, status int, start time.Time) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}

// PoolStatsFunc reports total, acquired and idle connections.
type PoolStatsFunc func() (total, acquired, idle int32)

// RegisterPool exposes database pool usage as gauges read at scrape time.
func RegisterPool(reg prometheus.Registerer, stats PoolStatsFunc) {
	f := promauto.With(reg)
	gauge := func(name, help string, pick func(total, acquired, idle int32) int32) {
		f.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return float64(pick(stats()))
		})
	}
	gauge("physio_db_pool_total_conns", "Open database connections",
		func(total, _, _ int32) int32 { return total })
	gauge("physio_db_pool_acquired_conns", "Database connections in use",
		func(_, acquired, _ int32) int32 { return acquired })
	gauge("physio_db_pool_idle_conns", "Idle database connections",
		func(_, _, idle int32) int32 { return idle })
}
