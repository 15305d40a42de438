// Package metrics exports pipeline activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utkarsh5026/streamsim/stream"
)

const namespace = "streamsim"

// Collector holds all pipeline metrics and implements stream.Observer.
// Methods on a nil *Collector do nothing.
type Collector struct {
	factory promauto.Factory

	FramesProduced prometheus.Counter
	FramesDropped  *prometheus.CounterVec
	FramesDecoded  prometheus.Counter
	FramesRendered prometheus.Counter
	DecodeDuration prometheus.Histogram
}

var _ stream.Observer = (*Collector)(nil)

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		factory: f,

		FramesProduced: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_produced_total",
				Help:      "Frames accepted from producers",
			},
		),
		FramesDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_dropped_total",
				Help:      "Frames lost because a downstream queue stayed full",
			},
			[]string{"stage"},
		),
		FramesDecoded: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_decoded_total",
				Help:      "Frames written to the decoded queue",
			},
		),
		FramesRendered: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_rendered_total",
				Help:      "Frames handed to the sink",
			},
		),
		DecodeDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "decode_duration_seconds",
				Help:      "Time spent in the decoder per frame",
				Buckets:   []float64{.0005, .001, .002, .004, .008, .016, .032, .064},
			},
		),
	}
}

// StatsSource is anything that reports service stats, normally *stream.Service.
type StatsSource interface {
	Stats() stream.Stats
}

// TrackService registers gauges that sample src on every scrape: depth of
// both queues and the pool overflow. Call it once per registry.
func (c *Collector) TrackService(src StatsSource) {
	if c == nil {
		return
	}

	queueDepth := func(queue string, fn func(stream.Stats) int) {
		c.factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "queue_depth",
				Help:        "Frames waiting in a pipeline queue",
				ConstLabels: prometheus.Labels{"queue": queue},
			},
			func() float64 { return float64(fn(src.Stats())) },
		)
	}
	queueDepth("decodable", func(s stream.Stats) int { return s.Decodable })
	queueDepth("decoded", func(s stream.Stats) int { return s.DecodedQueued })

	c.factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_overflow",
			Help:      "Decode tasks waiting in the worker pool overflow queue",
		},
		func() float64 { return float64(src.Stats().PoolOverflow) },
	)
}

// FrameProduced implements stream.Observer.
func (c *Collector) FrameProduced() {
	if c == nil {
		return
	}
	c.FramesProduced.Inc()
}

// FrameDropped implements stream.Observer.
func (c *Collector) FrameDropped(stage string) {
	if c == nil {
		return
	}
	c.FramesDropped.WithLabelValues(stage).Inc()
}

// FrameDecoded implements stream.Observer.
func (c *Collector) FrameDecoded(latency time.Duration) {
	if c == nil {
		return
	}
	c.FramesDecoded.Inc()
	c.DecodeDuration.Observe(latency.Seconds())
}

// FrameRendered implements stream.Observer.
func (c *Collector) FrameRendered() {
	if c == nil {
		return
	}
	c.FramesRendered.Inc()
}
