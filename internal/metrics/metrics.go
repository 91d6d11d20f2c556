package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry       *prometheus.Registry
	syncRuns       *prometheus.CounterVec // total sync cycles
	syncDuration   prometheus.Histogram   // time to complete a cycle
	desiredIPs     *prometheus.GaugeVec   // active origin IPs per tunnel/family
	dnsRequests    *prometheus.CounterVec // dns provider requests
	tunnelRequests *prometheus.CounterVec // tunnel connection enumerations
}

// Public interface for metrics operations
func (m *Metrics) IncSyncRun(success bool) {
	status := boolToResult(success)
	m.syncRuns.WithLabelValues(status).Inc()
}

func (m *Metrics) SetSyncDuration(duration time.Duration) {
	m.syncDuration.Observe(duration.Seconds())
}

func (m *Metrics) SetDesiredIPs(tunnel, recordType string, count int) {
	if !isValidRecordType(recordType) || tunnel == "" {
		return
	}
	m.desiredIPs.WithLabelValues(tunnel, recordType).Set(float64(count))
}

func (m *Metrics) IncDNSRequest(operation, zone, recordType string, success bool) {
	if !isValidOperation(operation) || !isValidRecordType(recordType) || zone == "" {
		return
	}
	status := boolToResult(success)
	m.dnsRequests.WithLabelValues(operation, zone, recordType, status).Inc()
}

func (m *Metrics) IncTunnelRequest(success bool) {
	status := boolToResult(success)
	m.tunnelRequests.WithLabelValues(status).Inc()
}

// Validation helpers
func boolToResult(b bool) string {
	if b {
		return "success"
	}
	return "failure"
}

func isValidOperation(op string) bool {
	switch op {
	case "read", "create", "delete":
		return true
	}
	return false
}

func isValidRecordType(rt string) bool {
	switch rt {
	case "A", "AAAA":
		return true
	}
	return false
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	namespace := "tunnel_dns_sync"

	m := &Metrics{
		registry: registry,

		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Total number of synchronization cycles",
		}, []string{"status"}),

		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of synchronization cycles in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		desiredIPs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "desired_ips_current",
			Help:      "Active origin IPs collected per tunnel and record type",
		}, []string{"tunnel", "record_type"}),

		dnsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_requests_total",
			Help:      "Total DNS provider requests",
		}, []string{"operation", "zone", "record_type", "status"}),

		tunnelRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tunnel_requests_total",
			Help:      "Total tunnel connection enumeration requests",
		}, []string{"status"}),
	}

	registry.MustRegister(
		m.syncRuns,
		m.syncDuration,
		m.desiredIPs,
		m.dnsRequests,
		m.tunnelRequests,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
