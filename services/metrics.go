package services

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	queryCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "query_count_total",
		Help: "Total number of answered queries.",
	})

	queryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "query_latency_seconds",
		Help:    "Wall-clock latency of the full query pipeline.",
		Buckets: prometheus.DefBuckets,
	})
)

// MetricsHandler exposes the Prometheus registry for mounting on the main
// router.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// ServeMetrics starts a standalone /metrics listener when port is non-zero.
func ServeMetrics(port int, logger *zap.Logger) {
	if port == 0 {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	go func() {
		logger.Info("metrics listener starting", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics listener stopped", zap.Error(err))
		}
	}()
}
