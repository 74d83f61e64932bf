package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics contains the Prometheus collectors for the playback engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SegmentsPlayed  prometheus.Counter
	PrefetchSplices prometheus.Counter
	SyncExtracts    prometheus.Counter
	Underruns       prometheus.Counter
	StalePrefetches prometheus.Counter
	Seeks           *prometheus.CounterVec
	PositionMs      prometheus.Gauge
	Paused          prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SegmentsPlayed: f.NewCounter(prometheus.CounterOpts{
			Name: "segplay_segments_played_total",
			Help: "Total number of segments handed to the sink",
		}),
		PrefetchSplices: f.NewCounter(prometheus.CounterOpts{
			Name: "segplay_prefetch_splices_total",
			Help: "Segments played straight from the prefetch slot",
		}),
		SyncExtracts: f.NewCounter(prometheus.CounterOpts{
			Name: "segplay_sync_extracts_total",
			Help: "Segments extracted on the control loop",
		}),
		Underruns: f.NewCounter(prometheus.CounterOpts{
			Name: "segplay_underruns_total",
			Help: "Segment ends reached before the next window was ready",
		}),
		StalePrefetches: f.NewCounter(prometheus.CounterOpts{
			Name: "segplay_stale_prefetches_total",
			Help: "Prefetch results discarded because a newer generation superseded them",
		}),
		Seeks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "segplay_seeks_total",
			Help: "Seek commands by direction",
		}, []string{"direction"}),
		PositionMs: f.NewGauge(prometheus.GaugeOpts{
			Name: "segplay_position_ms",
			Help: "Start of the window currently loaded in the sink",
		}),
		Paused: f.NewGauge(prometheus.GaugeOpts{
			Name: "segplay_paused",
			Help: "1 while playback is paused",
		}),
	}
}

func (m *Metrics) SegmentPlayed(fromPrefetch bool, positionMs int64) {
	if m == nil {
		return
	}
	m.SegmentsPlayed.Inc()
	if fromPrefetch {
		m.PrefetchSplices.Inc()
	} else {
		m.SyncExtracts.Inc()
	}
	m.PositionMs.Set(float64(positionMs))
}

func (m *Metrics) Seek(direction string) {
	if m == nil {
		return
	}
	m.Seeks.WithLabelValues(direction).Inc()
}

func (m *Metrics) Underrun() {
	if m == nil {
		return
	}
	m.Underruns.Inc()
}

func (m *Metrics) StalePrefetch() {
	if m == nil {
		return
	}
	m.StalePrefetches.Inc()
}

func (m *Metrics) SetPaused(paused bool) {
	if m == nil {
		return
	}
	v := 0.0
	if paused {
		v = 1
	}
	m.Paused.Set(v)
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs a /metrics endpoint on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Info().Str("address", addr).Msg("metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("metrics server error")
	}
}
