package adminapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// sessionCollector reports link-session gauges and counters to
// Prometheus, following the Describe/Collect shape of
// runZeroInc-sockstats/pkg/exporter.TCPInfoCollector: a small fixed set
// of metric descriptors, recomputed from the live SessionTracker on
// every scrape rather than cached.
type sessionCollector struct {
	tracker *SessionTracker

	sessionsActive   *prometheus.Desc
	bytesReceived    *prometheus.Desc
	transfersTotal   *prometheus.Desc
}

// NewSessionCollector returns a prometheus.Collector backed by tracker.
func NewSessionCollector(tracker *SessionTracker) prometheus.Collector {
	return &sessionCollector{
		tracker: tracker,
		sessionsActive: prometheus.NewDesc(
			"astm_sessions_active",
			"Number of currently open ASTM link sessions.",
			nil, nil,
		),
		bytesReceived: prometheus.NewDesc(
			"astm_bytes_received_total",
			"Total bytes received across all ASTM link sessions.",
			nil, nil,
		),
		transfersTotal: prometheus.NewDesc(
			"astm_transfers_total",
			"Total completed ENQ..EOT transfers across all sessions.",
			nil, nil,
		),
	}
}

func (c *sessionCollector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.sessionsActive
	descs <- c.bytesReceived
	descs <- c.transfersTotal
}

func (c *sessionCollector) Collect(metrics chan<- prometheus.Metric) {
	bytesReceived, transfers := c.tracker.totals()

	metrics <- prometheus.MustNewConstMetric(c.sessionsActive, prometheus.GaugeValue, float64(c.tracker.Count()))
	metrics <- prometheus.MustNewConstMetric(c.bytesReceived, prometheus.CounterValue, float64(bytesReceived))
	metrics <- prometheus.MustNewConstMetric(c.transfersTotal, prometheus.CounterValue, float64(transfers))
}
