package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	transfers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netfile",
			Subsystem: "server",
			Name:      "transfers_total",
			Help:      "File requests handled, by outcome label.",
		},
		[]string{"status"},
	)
	bytesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "netfile",
			Subsystem: "server",
			Name:      "bytes_sent_total",
			Help:      "File content bytes sent after a positive reply.",
		},
	)
	transferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "netfile",
			Subsystem: "server",
			Name:      "transfer_duration_seconds",
			Help:      "Time spent in one file transmission.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "netfile",
			Subsystem: "server",
			Name:      "active_sessions",
			Help:      "Connections currently served.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(transfers, bytesSent, transferDuration, activeSessions)
	})
}

// RecordTransfer counts one GET outcome. bytes is only added on success.
func RecordTransfer(status string, bytes int64, duration time.Duration) {
	RegisterMetrics()
	transfers.WithLabelValues(status).Inc()
	transferDuration.WithLabelValues(status).Observe(duration.Seconds())
	if bytes > 0 {
		bytesSent.Add(float64(bytes))
	}
}

func SessionStarted() {
	RegisterMetrics()
	activeSessions.Inc()
}

func SessionEnded() {
	RegisterMetrics()
	activeSessions.Dec()
}

// Handler serves the default registry
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}
