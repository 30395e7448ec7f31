package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics declares Prometheus instruments for the crawl's packed counters
// (§3 data model: downloaded, failed, queued, cache_hits), the adaptive
// pool's worker gauge, and crawled pages. The orchestrator updates only
// Downloaded, Failed and PagesCrawled; Queued, CacheHits and ActiveWorkers
// stay at zero. Nothing in the crawl pipeline reads these back — they are
// a scrape target, not internal state.
type Metrics struct {
	Downloaded    prometheus.Counter
	Failed        prometheus.Counter
	Queued        prometheus.Gauge
	CacheHits     prometheus.Counter
	ActiveWorkers prometheus.Gauge
	PagesCrawled  prometheus.Counter

	registry *prometheus.Registry
	server   *http.Server
}

// NewMetrics registers a fresh set of instruments on a private registry,
// so repeated crawls in the same process (tests) never collide on a
// shared default registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Downloaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "pdfcrawler_downloaded_total",
			Help: "PDFs successfully downloaded and validated.",
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pdfcrawler_failed_total",
			Help: "PDF downloads that failed or were rejected by validation.",
		}),
		Queued: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pdfcrawler_queued",
			Help: "Tasks currently sitting in the frontier.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "pdfcrawler_classifier_cache_hits_total",
			Help: "PDF classification verdicts served from cache.",
		}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pdfcrawler_active_workers",
			Help: "Current size of the adaptive crawl worker pool.",
		}),
		PagesCrawled: factory.NewCounter(prometheus.CounterOpts{
			Name: "pdfcrawler_pages_crawled_total",
			Help: "HTML pages successfully fetched and parsed.",
		}),
		registry: reg,
	}
}

// Serve starts an HTTP listener exposing /metrics on addr. A zero-value
// addr ("") means metrics are not served at all — the orchestrator treats
// this as opt-in, not required.
func (m *Metrics) Serve(addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	m.server = &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- m.server.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// Shutdown stops the metrics listener, if one was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
