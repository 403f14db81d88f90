package observability

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values for satobs_observations_total.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// ObservationCollector bundles Prometheus metrics for the observation
// pipeline, record parsing and the element-set catalog.
type ObservationCollector struct {
	gatherer prometheus.Gatherer

	Observations        *prometheus.CounterVec
	ObservationDuration *prometheus.HistogramVec
	PropagationFailures *prometheus.CounterVec
	ParseFailures       *prometheus.CounterVec
	CatalogEntries      prometheus.Gauge
}

// NewObservationCollector registers observation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewObservationCollector(reg prometheus.Registerer) (*ObservationCollector, error) {
	reg, gatherer := resolveRegistry(reg)

	observations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "satobs_observations_total",
		Help: "Total number of observation requests, labeled by operation and result.",
	}, []string{"operation", "result"})
	observations, err := register(reg, observations, "satobs_observations_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "satobs_observation_duration_seconds",
		Help:    "Time spent propagating and converting one observation.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
	}, []string{"operation"})
	durations, err = register(reg, durations, "satobs_observation_duration_seconds")
	if err != nil {
		return nil, err
	}

	propagation := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "satobs_propagation_failures_total",
		Help: "Propagator initialisation and compute failures, labeled by failure kind.",
	}, []string{"kind"})
	propagation, err = register(reg, propagation, "satobs_propagation_failures_total")
	if err != nil {
		return nil, err
	}

	parse := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "satobs_parse_failures_total",
		Help: "Rejected element set records, labeled by parse error kind.",
	}, []string{"kind"})
	parse, err = register(reg, parse, "satobs_parse_failures_total")
	if err != nil {
		return nil, err
	}

	catalog, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "satobs_catalog_entries",
		Help: "Current number of element sets held in the catalog.",
	}), "satobs_catalog_entries")
	if err != nil {
		return nil, err
	}

	return &ObservationCollector{
		gatherer:            gatherer,
		Observations:        observations,
		ObservationDuration: durations,
		PropagationFailures: propagation,
		ParseFailures:       parse,
		CatalogEntries:      catalog,
	}, nil
}

// RecordObservation counts one observation request and its latency.
func (c *ObservationCollector) RecordObservation(operation string, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	if c.Observations != nil {
		c.Observations.WithLabelValues(operation, result).Inc()
	}
	if c.ObservationDuration != nil {
		c.ObservationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	}
}

// IncPropagationFailure counts a propagator failure of the given kind.
func (c *ObservationCollector) IncPropagationFailure(kind string) {
	if c == nil || c.PropagationFailures == nil {
		return
	}
	c.PropagationFailures.WithLabelValues(kind).Inc()
}

// IncParseFailure counts a rejected record of the given kind.
func (c *ObservationCollector) IncParseFailure(kind string) {
	if c == nil || c.ParseFailures == nil {
		return
	}
	c.ParseFailures.WithLabelValues(kind).Inc()
}

// SetCatalogEntries satisfies the catalog's metrics recorder so the gauge
// tracks catalog mutations directly.
func (c *ObservationCollector) SetCatalogEntries(n int) {
	if c == nil || c.CatalogEntries == nil {
		return
	}
	c.CatalogEntries.Set(float64(n))
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *ObservationCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ObservationCollector) Handler() http.Handler {
	return HandlerFor(c.Gatherer())
}

// HandlerFor returns a /metrics handler for gatherer, falling back to the
// default gatherer when nil.
func HandlerFor(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// resolveRegistry defaults reg to the global registry and pairs it with the
// gatherer that serves it.
func resolveRegistry(reg prometheus.Registerer) (prometheus.Registerer, prometheus.Gatherer) {
	if reg == nil {
		return prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		return reg, g
	}
	return reg, prometheus.DefaultGatherer
}

// register adds c to reg. When an identical collector is already registered
// it is returned instead, so collectors can be rebuilt against one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, name string) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("register %s: %w", name, err)
	}
	existing, ok := are.ExistingCollector.(C)
	if !ok {
		return c, fmt.Errorf("collector %s already registered with incompatible type", name)
	}
	return existing, nil
}
