package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bandpass"

// Metrics holds the Prometheus collectors of the player.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	scans          prometheus.Counter
	scanDuration   prometheus.Histogram
	tracksFound    prometheus.Gauge
	metadataErrors prometheus.Counter
	indexBuilds    *prometheus.CounterVec
	chainBuilds    prometheus.Counter
	chainStages    prometheus.Gauge
	masterLevel    prometheus.Gauge
	filtersSkipped *prometheus.CounterVec
	transitions    *prometheus.CounterVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "library", Name: "scans_total",
			Help: "Number of library scans.",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "library", Name: "scan_duration_seconds",
			Help:    "Duration of library scans.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		tracksFound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "library", Name: "tracks",
			Help: "Tracks found by the last scan.",
		}),
		metadataErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "library", Name: "metadata_errors_total",
			Help: "Metadata reads that failed and fell back to defaults.",
		}),
		indexBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "library", Name: "index_builds_total",
			Help: "Index rebuilds by kind.",
		}, []string{"kind"}),
		chainBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "equalizer", Name: "chain_builds_total",
			Help: "Signal chains built.",
		}),
		chainStages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "equalizer", Name: "chain_stages",
			Help: "Filter stages in the last built chain.",
		}),
		masterLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "equalizer", Name: "master_level",
			Help: "Linear master level applied after the last built chain.",
		}),
		filtersSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "equalizer", Name: "filters_skipped_total",
			Help: "Filters excluded from a chain by reason.",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "playback", Name: "transitions_total",
			Help: "Playback controller transitions.",
		}, []string{"transition"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.scans, m.scanDuration, m.tracksFound, m.metadataErrors, m.indexBuilds,
		m.chainBuilds, m.chainStages, m.masterLevel, m.filtersSkipped, m.transitions,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveScan(d time.Duration, tracks int) {
	if m == nil {
		return
	}
	m.scans.Inc()
	m.scanDuration.Observe(d.Seconds())
	m.tracksFound.Set(float64(tracks))
}

func (m *Metrics) MetadataError() {
	if m == nil {
		return
	}
	m.metadataErrors.Inc()
}

func (m *Metrics) IndexBuilt(kind string) {
	if m == nil {
		return
	}
	m.indexBuilds.WithLabelValues(kind).Inc()
}

func (m *Metrics) ChainBuilt(stages int, masterLevel float64) {
	if m == nil {
		return
	}
	m.chainBuilds.Inc()
	m.chainStages.Set(float64(stages))
	m.masterLevel.Set(masterLevel)
}

func (m *Metrics) FilterSkipped(reason string) {
	if m == nil {
		return
	}
	m.filtersSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) Transition(name string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(name).Inc()
}
