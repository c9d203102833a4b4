// Package metrics collects and exposes Prometheus metrics for the assistant.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the narrow surface the core services record through.
type Recorder interface {
	TurnStarted()
	TurnCompleted(duration time.Duration)
	GenerationFailure()
	SaveFailure()
	TitleDerived()
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	registry     *prometheus.Registry
	turnsStarted prometheus.Counter
	turnLatency  prometheus.Histogram
	genFailures  prometheus.Counter
	saveFailures prometheus.Counter
	titleDerived prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		turnsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "krishi_chat_turns_started_total",
			Help: "Chat turns accepted by the conversation manager.",
		}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "krishi_chat_turn_duration_seconds",
			Help:    "End-to-end chat turn latency, including persistence.",
			Buckets: prometheus.DefBuckets,
		}),
		genFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "krishi_generation_failures_total",
			Help: "Generation gateway calls that ended in an error.",
		}),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "krishi_session_save_failures_total",
			Help: "Chat session persistence writes that failed.",
		}),
		titleDerived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "krishi_titles_derived_total",
			Help: "Background session titles successfully derived and saved.",
		}),
	}
	c.registry.MustRegister(c.turnsStarted, c.turnLatency, c.genFailures, c.saveFailures, c.titleDerived)
	return c
}

func (c *Collector) TurnStarted()                  { c.turnsStarted.Inc() }
func (c *Collector) TurnCompleted(d time.Duration) { c.turnLatency.Observe(d.Seconds()) }
func (c *Collector) GenerationFailure()            { c.genFailures.Inc() }
func (c *Collector) SaveFailure()                  { c.saveFailures.Inc() }
func (c *Collector) TitleDerived()                 { c.titleDerived.Inc() }

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Nop discards all observations. Used in tests.
type Nop struct{}

func (Nop) TurnStarted()                {}
func (Nop) TurnCompleted(time.Duration) {}
func (Nop) GenerationFailure()          {}
func (Nop) SaveFailure()                {}
func (Nop) TitleDerived()               {}
