// Package observability holds the logging and metrics plumbing shared by
// every job.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "climprep"

// Metrics holds the Prometheus counters and gauges for one job run.
type Metrics struct {
	registry *prometheus.Registry

	FilesRead       prometheus.Counter
	FilesDownloaded prometheus.Counter
	FilesSkipped    prometheus.Counter
	BytesDownloaded prometheus.Counter
	CellsComputed   prometheus.Counter
	CellsUndefined  prometheus.Counter
	OutputBytes     prometheus.Gauge
	JobDuration     prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// NewMetrics creates all job metrics on a private registry, which is what
// Push sends to the Pushgateway. Each call returns an independent set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_read_total",
			Help:      "Input files read.",
		}),
		FilesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_downloaded_total",
			Help:      "Granules fetched from Earthdata.",
		}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Granules already present in the download directory.",
		}),
		BytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_downloaded_total",
			Help:      "Bytes fetched from Earthdata.",
		}),
		CellsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toa_cells_computed_total",
			Help:      "Grid cells evaluated by the TOA radiation kernel.",
		}),
		CellsUndefined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toa_cells_undefined_total",
			Help:      "Grid cells with an undefined sunset hour angle (polar day or night).",
		}),
		OutputBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output_bytes",
			Help:      "Size of the written output file.",
		}),
		JobDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of the run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	m.registry.MustRegister(
		m.FilesRead,
		m.FilesDownloaded,
		m.FilesSkipped,
		m.BytesDownloaded,
		m.CellsComputed,
		m.CellsUndefined,
		m.OutputBytes,
		m.JobDuration,
		m.LastSuccess,
	)
	return m
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Push sends every metric to the Pushgateway at url, grouped by task so
// that the chirps, download and toa runs do not replace each other. An
// empty url is a no-op.
func (m *Metrics) Push(url, task string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, namespace).Grouping("task", task).Gatherer(m.registry).Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
