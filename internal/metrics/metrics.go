// Package metrics exposes ticker counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the ticker's Prometheus metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	fetchTotal     *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	classifyErrors prometheus.Counter
	storiesTotal   *prometheus.CounterVec
	rounds         prometheus.Counter
	pending        prometheus.Gauge
	linksTotal     *prometheus.CounterVec
}

// NewCollector constructs and registers every metric.
func NewCollector() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "headlines",
			Name:      "fetch_total",
			Help:      "Feed fetches by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "headlines",
			Name:      "fetch_duration_seconds",
			Help:      "Latency distribution of feed fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
		classifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "headlines",
			Name:      "classify_errors_total",
			Help:      "Fetches whose items had a missing or unparseable timestamp.",
		}),
		storiesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "headlines",
			Name:      "stories_total",
			Help:      "Stories by lifecycle stage (fresh, shown, evicted).",
		}, []string{"stage"}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "headlines",
			Name:      "rounds_total",
			Help:      "Completed scheduler rounds.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "headlines",
			Name:      "pending_stories",
			Help:      "Sources waiting to have their story displayed.",
		}),
		linksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "headlines",
			Name:      "links_opened_total",
			Help:      "Clicked links by result.",
		}, []string{"result"}),
	}

	for _, m := range []prometheus.Collector{
		c.fetchTotal, c.fetchDuration, c.classifyErrors,
		c.storiesTotal, c.rounds, c.pending, c.linksTotal,
	} {
		if err := c.registry.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// FetchDone records one finished fetch.
func (c *Collector) FetchDone(d time.Duration, err error) {
	c.fetchTotal.WithLabelValues(result(err)).Inc()
	c.fetchDuration.Observe(d.Seconds())
}

// ClassifyError records a classification failure.
func (c *Collector) ClassifyError() { c.classifyErrors.Inc() }

// Fresh records a story judged fresh.
func (c *Collector) Fresh() { c.storiesTotal.WithLabelValues("fresh").Inc() }

// Shown records a story inserted into the display.
func (c *Collector) Shown() { c.storiesTotal.WithLabelValues("shown").Inc() }

// Evicted records n stories dropped off the bottom of the buffer.
func (c *Collector) Evicted(n int) { c.storiesTotal.WithLabelValues("evicted").Add(float64(n)) }

// Rollover records a completed round.
func (c *Collector) Rollover() { c.rounds.Inc() }

// SetPending sets the pending queue depth.
func (c *Collector) SetPending(n int) { c.pending.Set(float64(n)) }

// LinkOpened records a click-through.
func (c *Collector) LinkOpened(err error) { c.linksTotal.WithLabelValues(result(err)).Inc() }

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
