package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "toast_tap"

type metrics struct {
	registry       *prometheus.Registry
	recordsEmitted *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpRetries    prometheus.Counter
	bookmarks      *prometheus.GaugeVec
	syncRuns       *prometheus.CounterVec
	syncDuration   prometheus.Gauge
}

var (
	mu       sync.Mutex
	instance *metrics
)

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		recordsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Records written to the output, per stream.",
		}, []string{"stream"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Upstream API calls by method and outcome.",
		}, []string{"method", "outcome"}),
		httpRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_retries_total",
			Help:      "Upstream API calls scheduled for another attempt.",
		}),
		bookmarks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bookmark_timestamp_seconds",
			Help:      "Latest bookmark per incremental stream.",
		}, []string{"stream"}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Finished sync runs by result.",
		}, []string{"result"}),
		syncDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall time of the last sync run.",
		}),
	}
	m.registry.MustRegister(m.recordsEmitted, m.httpRequests, m.httpRetries, m.bookmarks, m.syncRuns, m.syncDuration)
	return m
}

// Init starts a fresh set of counters for this process
func Init() {
	mu.Lock()
	defer mu.Unlock()
	instance = newMetrics()
}

func get() *metrics {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = newMetrics()
	}
	return instance
}

func RecordEmitted(stream string) {
	get().recordsEmitted.WithLabelValues(stream).Inc()
}

func TrackRequest(method string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	get().httpRequests.WithLabelValues(method, outcome).Inc()
}

func TrackRetry() {
	get().httpRetries.Inc()
}

func TrackBookmark(stream string, bookmark time.Time) {
	get().bookmarks.WithLabelValues(stream).Set(float64(bookmark.Unix()))
}

func TrackSyncResult(success bool, elapsed time.Duration) {
	m := get()
	result := "success"
	if !success {
		result = "failure"
	}
	m.syncRuns.WithLabelValues(result).Inc()
	m.syncDuration.Set(elapsed.Seconds())
}

// Flush writes all metrics in the text exposition format, suitable for a
// node exporter textfile collector.
func Flush(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics folder: %s", err)
	}
	return prometheus.WriteToTextfile(path, get().registry)
}
