package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pamrfid",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"listener", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pamrfid",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"listener", "method", "path", "status"},
	)
	frames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pamrfid",
			Name:      "frames_total",
			Help:      "Tag read attempts by decode result.",
		},
		[]string{"result"},
	)
	readDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pamrfid",
			Name:      "read_duration_seconds",
			Help:      "Time spent in one tag read attempt.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)
	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pamrfid",
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Authentication attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, frames, readDuration, authAttempts)
	})
}

func RecordHTTPRequest(listener, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(listener, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(listener, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordRead counts one ReadTag call; result is rfid.Classify of its error.
func RecordRead(result string, duration time.Duration) {
	RegisterMetrics()
	frames.WithLabelValues(result).Inc()
	readDuration.WithLabelValues(result).Observe(duration.Seconds())
}

func RecordAuth(outcome string) {
	RegisterMetrics()
	authAttempts.WithLabelValues(outcome).Inc()
}
