package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/torrkit/seedsweep/internal/core"
)

// Prometheus implements core.Metrics using the Prometheus client.
type Prometheus struct {
	snapshotSize  prometheus.Gauge
	decisions     *prometheus.CounterVec
	removed       prometheus.Counter
	bytesFreed    prometheus.Counter
	removalErrors *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastRun       prometheus.Gauge
}

// NewPrometheus creates a new Prometheus metrics collector.
// All metrics are registered with the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Prometheus{
		snapshotSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "seedsweep",
			Subsystem: "planner",
			Name:      "snapshot_torrents",
			Help:      "Number of torrents in the last snapshot",
		}),

		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seedsweep",
			Subsystem: "planner",
			Name:      "decisions_total",
			Help:      "Total retention decisions by verdict",
		}, []string{"verdict"}),

		removed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "seedsweep",
			Subsystem: "sweeper",
			Name:      "torrents_removed_total",
			Help:      "Total torrents removed (with file data)",
		}),

		bytesFreed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "seedsweep",
			Subsystem: "sweeper",
			Name:      "bytes_reclaimed_total",
			Help:      "Total bytes held by removed torrents",
		}),

		removalErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seedsweep",
			Subsystem: "sweeper",
			Name:      "removal_errors_total",
			Help:      "Total removal errors by operation",
		}, []string{"op"}),

		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "seedsweep",
			Subsystem: "sweeper",
			Name:      "run_duration_seconds",
			Help:      "Time spent on one full sweep",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
		}),

		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "seedsweep",
			Subsystem: "sweeper",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed sweep",
		}),
	}
}

func (p *Prometheus) SetSnapshotSize(n int) {
	p.snapshotSize.Set(float64(n))
}

func (p *Prometheus) IncDecision(action core.Action) {
	p.decisions.WithLabelValues(string(action)).Inc()
}

func (p *Prometheus) AddRemoved(n int) {
	p.removed.Add(float64(n))
}

func (p *Prometheus) AddBytesReclaimed(bytes int64) {
	p.bytesFreed.Add(float64(bytes))
}

func (p *Prometheus) IncRemovalErrors(op string) {
	p.removalErrors.WithLabelValues(op).Inc()
}

func (p *Prometheus) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
}

func (p *Prometheus) SetLastRun(t time.Time) {
	p.lastRun.Set(float64(t.Unix()))
}

// Ensure Prometheus implements core.Metrics
var _ core.Metrics = (*Prometheus)(nil)
