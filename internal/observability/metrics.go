// Package observability exposes the pipeline's event counters as
// Prometheus metrics.
package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"dexlead/internal/metrics"
)

const namespace = "dexlead"

// Exporter is a prometheus.Collector backed by a metrics.Counters
// accumulator. Every counter becomes one series of
// dexlead_events_total{event="..."}.
type Exporter struct {
	counters *metrics.Counters
	desc     *prometheus.Desc
}

var _ prometheus.Collector = (*Exporter)(nil)

// NewExporter creates an Exporter over the given accumulator.
func NewExporter(counters *metrics.Counters) *Exporter {
	return &Exporter{
		counters: counters,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "events_total"),
			"Total pipeline events by name.",
			[]string{"event"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.desc
}

// Collect implements prometheus.Collector. Counters are monotonic, so
// const metrics built from a snapshot are safe.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	for event, count := range e.counters.Snapshot() {
		ch <- prometheus.MustNewConstMetric(
			e.desc, prometheus.CounterValue, float64(count), event)
	}
}

// Server serves /metrics from its own registry.
type Server struct {
	srv *http.Server
	log zerolog.Logger
}

// NewServer registers the exporter on a fresh registry and prepares an
// HTTP server on addr.
func NewServer(addr string, counters *metrics.Counters, log zerolog.Logger) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewExporter(counters))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log.With().Str("component", "metrics_server").Logger(),
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("metrics server listening")

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return <-errCh
	case err := <-errCh:
		return err
	}
}
