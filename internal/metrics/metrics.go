// Package metrics is the optional Prometheus sidecar, modeled on
// runZeroInc-sockstats's pkg/exporter.TCPInfoCollector: a custom
// prometheus.Collector that reads a snapshot struct under a single mutex
// rather than touching engine state directly from the scrape goroutine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nimmisuri/custom-transport-protocol/internal/sender"
)

// Snapshot is the subset of engine state exported as metrics.
type Snapshot = sender.Snapshot

// Collector exports one session's engine state as Prometheus gauges and a
// monotonic counter, all tagged with the session's constant correlation
// label.
type Collector struct {
	mu       sync.Mutex
	snap     Snapshot
	sessLbls prometheus.Labels

	cwnd       *prometheus.Desc
	ssthresh   *prometheus.Desc
	rtt        *prometheus.Desc
	rto        *prometheus.Desc
	dupAcks    *prometheus.Desc
	loaded     *prometheus.Desc
	inflight   *prometheus.Desc
	bytesAcked *prometheus.Desc
}

// New returns a Collector tagging every exported metric with the given
// constant labels (typically just the session correlation id).
func New(constLabels prometheus.Labels) *Collector {
	return &Collector{
		sessLbls:   constLabels,
		cwnd:       prometheus.NewDesc("rudp_cwnd", "Current congestion window.", nil, constLabels),
		ssthresh:   prometheus.NewDesc("rudp_ssthresh", "Current slow-start threshold.", nil, constLabels),
		rtt:        prometheus.NewDesc("rudp_rtt_seconds", "Smoothed round-trip time estimate.", nil, constLabels),
		rto:        prometheus.NewDesc("rudp_rto_seconds", "Current retransmission timeout.", nil, constLabels),
		dupAcks:    prometheus.NewDesc("rudp_dup_acks", "Consecutive duplicate ACKs observed.", nil, constLabels),
		loaded:     prometheus.NewDesc("rudp_loaded_packets", "Packets loaded but not yet sent.", nil, constLabels),
		inflight:   prometheus.NewDesc("rudp_inflight_packets", "Packets sent but not yet acknowledged.", nil, constLabels),
		bytesAcked: prometheus.NewDesc("rudp_bytes_acked_total", "Total bytes acknowledged as delivered.", nil, constLabels),
	}
}

// Update refreshes the exported snapshot, including the running total of
// acknowledged bytes, which only ever grows within a session.
func (c *Collector) Update(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.cwnd
	descs <- c.ssthresh
	descs <- c.rtt
	descs <- c.rto
	descs <- c.dupAcks
	descs <- c.loaded
	descs <- c.inflight
	descs <- c.bytesAcked
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	c.mu.Lock()
	snap := c.snap
	c.mu.Unlock()

	metrics <- prometheus.MustNewConstMetric(c.cwnd, prometheus.GaugeValue, snap.CWND)
	metrics <- prometheus.MustNewConstMetric(c.ssthresh, prometheus.GaugeValue, snap.SSThresh)
	metrics <- prometheus.MustNewConstMetric(c.rtt, prometheus.GaugeValue, snap.RTT)
	metrics <- prometheus.MustNewConstMetric(c.rto, prometheus.GaugeValue, snap.RTO)
	metrics <- prometheus.MustNewConstMetric(c.dupAcks, prometheus.GaugeValue, float64(snap.DupAcks))
	metrics <- prometheus.MustNewConstMetric(c.loaded, prometheus.GaugeValue, float64(snap.LoadedPackets))
	metrics <- prometheus.MustNewConstMetric(c.inflight, prometheus.GaugeValue, float64(snap.InflightPackets))
	metrics <- prometheus.MustNewConstMetric(c.bytesAcked, prometheus.CounterValue, float64(snap.BytesAcked))
}

var _ prometheus.Collector = (*Collector)(nil)
