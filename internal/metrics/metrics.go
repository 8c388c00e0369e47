package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loadprobe/internal/results"
)

const namespace = "loadprobe"

// Collector exports measured-phase outcomes as Prometheus metrics.
type Collector struct {
	Registry *prometheus.Registry

	requests      *prometheus.CounterVec
	responseTime  prometheus.Histogram
	batches       prometheus.Counter
	batchDuration prometheus.Histogram
}

func NewCollector(runID string) *Collector {
	labels := prometheus.Labels{"run_id": runID}

	c := &Collector{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "requests_total",
			Help:        "Completed requests by outcome and status code.",
			ConstLabels: labels,
		}, []string{"outcome", "code"}),
		responseTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "response_time_seconds",
			Help:        "Response time of every completed request.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 16),
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "batches_total",
			Help:        "Batches fully resolved.",
			ConstLabels: labels,
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "batch_duration_seconds",
			Help:        "Wall time from batch dispatch to barrier.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 16),
		}),
	}

	c.Registry.MustRegister(c.requests, c.responseTime, c.batches, c.batchDuration)
	return c
}

func (c *Collector) Observe(o results.Outcome) {
	outcome := "success"
	if !o.Success {
		outcome = "failure"
	}
	code := "none"
	if o.HasStatus() {
		code = strconv.Itoa(o.StatusCode)
	}
	c.requests.WithLabelValues(outcome, code).Inc()
	c.responseTime.Observe(o.ResponseTimeMs / 1000)
}

func (c *Collector) ObserveBatch(size int, elapsed time.Duration) {
	c.batches.Inc()
	c.batchDuration.Observe(elapsed.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
