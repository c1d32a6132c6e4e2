// Package metrics exposes Prometheus metrics for the signal pipeline and
// serves them on a dedicated listener.
package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the signal pipeline.
type Metrics struct {
	FetchAttempts  prometheus.Counter
	FetchFailures  prometheus.Counter
	FetchFallbacks prometheus.Counter

	BarsIngested    prometheus.Counter
	PersistFailures prometheus.Counter
	BreakerOpen     prometheus.Gauge

	SignalsComputed *prometheus.CounterVec // labels: timeframe
	Broadcasts      prometheus.Counter
	PairsSkipped    prometheus.Counter

	CachedBars prometheus.Gauge
	WSClients  prometheus.Gauge

	FetchDur prometheus.Histogram
	PassDur  prometheus.Histogram
}

// New registers and returns all pipeline metrics.
func New() *Metrics {
	m := &Metrics{
		FetchAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalserver_fetch_attempts_total",
			Help: "Upstream fetch attempts (including retries)",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalserver_fetch_failures_total",
			Help: "Upstream fetch attempts that errored",
		}),
		FetchFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalserver_fetch_fallbacks_total",
			Help: "Fetches served via 1min fallback + resample",
		}),
		BarsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalserver_bars_ingested_total",
			Help: "Bars appended to the in-memory cache",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalserver_persist_failures_total",
			Help: "Snapshot store insert failures (isolated, non-fatal)",
		}),
		BreakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalserver_store_breaker_open",
			Help: "1 while the persistence circuit breaker is open",
		}),
		SignalsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalserver_signals_total",
			Help: "Signals computed and broadcast (by timeframe)",
		}, []string{"tf"}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalserver_broadcasts_total",
			Help: "Signal payloads handed to the broadcaster",
		}),
		PairsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalserver_pairs_skipped_total",
			Help: "Pairs skipped in a pass (empty fetch or warm-up unmet)",
		}),
		CachedBars: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalserver_cached_bars",
			Help: "Total bars currently held in the cache",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalserver_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalserver_fetch_duration_seconds",
			Help:    "Duration of one pair fetch (including retries and fallback)",
			Buckets: prometheus.DefBuckets,
		}),
		PassDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalserver_pass_duration_seconds",
			Help:    "Duration of one full orchestrator pass",
			Buckets: prometheus.DefBuckets,
		}),
	}

	prometheus.MustRegister(
		m.FetchAttempts, m.FetchFailures, m.FetchFallbacks,
		m.BarsIngested, m.PersistFailures, m.BreakerOpen,
		m.SignalsComputed, m.Broadcasts, m.PairsSkipped,
		m.CachedBars, m.WSClients, m.FetchDur, m.PassDur,
	)
	return m
}

// FetchAttempt implements the fetcher's Metrics hook.
func (m *Metrics) FetchAttempt() { m.FetchAttempts.Inc() }

// FetchFailure implements the fetcher's Metrics hook.
func (m *Metrics) FetchFailure() { m.FetchFailures.Inc() }

// FetchFallback implements the fetcher's Metrics hook.
func (m *Metrics) FetchFallback() { m.FetchFallbacks.Inc() }

// Server serves /metrics and /healthz on its own listener.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics server bound to addr.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in a background goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] serving on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Close shuts the listener down.
func (s *Server) Close() error {
	return s.srv.Close()
}
