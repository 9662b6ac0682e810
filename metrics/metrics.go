// Package metrics exposes player counters to prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/livetv-cli/livetv/engine"
	"github.com/livetv-cli/livetv/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Metrics holds the counters and gauges of one player process.
type Metrics struct {
	registry         *prometheus.Registry
	enginesCreated   prometheus.Counter
	enginesDestroyed prometheus.Counter
	activeEngines    prometheus.Gauge
	fatalErrors      *prometheus.CounterVec
	recoverable      *prometheus.CounterVec
	fragmentBytes    prometheus.Counter
	fragments        prometheus.Counter
	qualitySwitches  prometheus.Counter
}

// New creates and registers the player metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		enginesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livetv_engines_created_total",
			Help: "Total number of streaming engines created",
		}),
		enginesDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livetv_engines_destroyed_total",
			Help: "Total number of streaming engines destroyed",
		}),
		activeEngines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "livetv_active_engines",
			Help: "Number of engines currently alive, at most one per controller",
		}),
		fatalErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livetv_fatal_errors_total",
			Help: "Fatal engine errors by kind",
		}, []string{"kind"}),
		recoverable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livetv_recoverable_errors_total",
			Help: "Recoverable engine errors by kind",
		}, []string{"kind"}),
		fragmentBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livetv_fragment_bytes_total",
			Help: "Bytes of media fragments handed to the surface",
		}),
		fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livetv_fragments_total",
			Help: "Media fragments handed to the surface",
		}),
		qualitySwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livetv_quality_switches_total",
			Help: "Level changes reported by engines",
		}),
	}

	registry.MustRegister(
		m.enginesCreated,
		m.enginesDestroyed,
		m.activeEngines,
		m.fatalErrors,
		m.recoverable,
		m.fragmentBytes,
		m.fragments,
		m.qualitySwitches,
	)

	return m
}

// EngineCreated counts a new engine. A nil *Metrics records nothing.
func (m *Metrics) EngineCreated() {
	if m == nil {
		return
	}
	m.enginesCreated.Inc()
	m.activeEngines.Inc()
}

func (m *Metrics) EngineDestroyed() {
	if m == nil {
		return
	}
	m.enginesDestroyed.Inc()
	m.activeEngines.Dec()
}

// Observe records an engine event.
func (m *Metrics) Observe(ev engine.Event) {
	if m == nil {
		return
	}
	switch ev := ev.(type) {
	case engine.FatalError:
		m.fatalErrors.WithLabelValues(ev.Err.Kind.String()).Inc()
	case engine.RecoverableError:
		m.recoverable.WithLabelValues(ev.Err.Kind.String()).Inc()
	case engine.FragmentLoaded:
		m.fragments.Inc()
		m.fragmentBytes.Add(float64(ev.Bytes))
	case engine.QualityChanged:
		m.qualitySwitches.Inc()
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Router mounts /metrics and a liveness probe.
func (m *Metrics) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())
	return r
}

// Serve listens on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("metrics: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
