// Package metrics exports interview and recommendation counters in the
// prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/abhisek/hooptriage/internal/session"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hooptriage"

// Collector is a session.Observer that counts engine outcomes.
type Collector struct {
	registry *prometheus.Registry

	events          *prometheus.CounterVec
	payloadErrors   *prometheus.CounterVec
	callLatency     *prometheus.HistogramVec
	recommendations prometheus.Histogram
}

var _ session.Observer = (*Collector)(nil)

// New creates a Collector on its own registry, with the Go runtime and
// process collectors attached.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "events_total",
			Help:      "Interview submissions by outcome and prompted phase.",
		}, []string{"kind", "phase"}),
		payloadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "payload_errors_total",
			Help:      "Model replies that could not be interpreted, by error tag.",
		}, []string{"tag"}),
		callLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "call_duration_seconds",
			Help:      "Latency of model calls made by the interview engine.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"phase"}),
		recommendations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "specialist",
			Name:      "recommendations",
			Help:      "Specialists returned per recommendation request.",
			Buckets:   []float64{0, 1, 2, 3},
		}),
	}
	c.registry.MustRegister(
		c.events,
		c.payloadErrors,
		c.callLatency,
		c.recommendations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Observe implements session.Observer.
func (c *Collector) Observe(_ context.Context, ev session.Event) {
	c.events.WithLabelValues(string(ev.Kind), string(ev.Phase)).Inc()
	if ev.Kind == session.EventPayloadError && ev.ErrorTag != "" {
		c.payloadErrors.WithLabelValues(string(ev.ErrorTag)).Inc()
	}
	if ev.Latency > 0 {
		c.callLatency.WithLabelValues(string(ev.Phase)).Observe(ev.Latency.Seconds())
	}
}

// ObserveRecommendations records how many specialists one request returned.
func (c *Collector) ObserveRecommendations(n int) {
	c.recommendations.Observe(float64(n))
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
