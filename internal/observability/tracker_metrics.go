package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TrackerCollector exposes metrics for the periodic tracking loop.
type TrackerCollector struct {
	gatherer prometheus.Gatherer

	TickDuration   prometheus.Histogram
	TicksTotal     prometheus.Counter
	ActiveSessions prometheus.Gauge
	SimTimeLag     prometheus.Gauge
}

// NewTrackerCollector registers tracker metrics against the provided registerer.
func NewTrackerCollector(reg prometheus.Registerer) (*TrackerCollector, error) {
	reg, gatherer := resolveRegistry(reg)

	tickHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "satobs_tracker_tick_duration_seconds",
		Help:    "Time taken to observe every tracked satellite for one clock tick.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
	tickHistogram, err := register(reg, tickHistogram, "satobs_tracker_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "satobs_tracker_ticks_total",
		Help: "Cumulative number of clock ticks processed by the tracker.",
	})
	ticks, err = register(reg, ticks, "satobs_tracker_ticks_total")
	if err != nil {
		return nil, err
	}

	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "satobs_tracker_active_sessions",
		Help: "Number of tracking sessions currently held by the tracker.",
	})
	sessions, err = register(reg, sessions, "satobs_tracker_active_sessions")
	if err != nil {
		return nil, err
	}

	lag := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "satobs_tracker_sim_time_lag_seconds",
		Help: "Difference between simulated time and wall-clock time at the last tick.",
	})
	lag, err = register(reg, lag, "satobs_tracker_sim_time_lag_seconds")
	if err != nil {
		return nil, err
	}

	return &TrackerCollector{
		gatherer:       gatherer,
		TickDuration:   tickHistogram,
		TicksTotal:     ticks,
		ActiveSessions: sessions,
		SimTimeLag:     lag,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *TrackerCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveTick records one processed tick.
func (c *TrackerCollector) ObserveTick(d time.Duration, simTime, wallTime time.Time) {
	if c == nil {
		return
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(d.Seconds())
	}
	if c.TicksTotal != nil {
		c.TicksTotal.Inc()
	}
	if c.SimTimeLag != nil {
		c.SimTimeLag.Set(simTime.Sub(wallTime).Seconds())
	}
}

// SetActiveSessions updates the session gauge.
func (c *TrackerCollector) SetActiveSessions(count int) {
	if c == nil || c.ActiveSessions == nil {
		return
	}
	c.ActiveSessions.Set(float64(count))
}
