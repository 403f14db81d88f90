package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordObservation(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewObservationCollector(reg)
	if err != nil {
		t.Fatalf("NewObservationCollector: %v", err)
	}

	collector.RecordObservation("observe", nil, 2*time.Millisecond)
	collector.RecordObservation("observe", errors.New("boom"), time.Millisecond)
	collector.RecordObservation("observe", nil, time.Millisecond)

	if got := testutil.ToFloat64(collector.Observations.WithLabelValues("observe", ResultOK)); got != 2 {
		t.Fatalf("satobs_observations_total{result=ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.Observations.WithLabelValues("observe", ResultError)); got != 1 {
		t.Fatalf("satobs_observations_total{result=error} = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "satobs_observation_duration_seconds", map[string]string{
		"operation": "observe",
	}); count != 3 {
		t.Fatalf("satobs_observation_duration_seconds sample_count = %d, want 3", count)
	}
}

func TestFailureCountersByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewObservationCollector(reg)
	if err != nil {
		t.Fatalf("NewObservationCollector: %v", err)
	}

	collector.IncPropagationFailure("decayed")
	collector.IncPropagationFailure("decayed")
	collector.IncPropagationFailure("mean_elements")
	collector.IncParseFailure("checksum_mismatch")

	if got := testutil.ToFloat64(collector.PropagationFailures.WithLabelValues("decayed")); got != 2 {
		t.Fatalf("propagation failures{decayed} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.PropagationFailures.WithLabelValues("mean_elements")); got != 1 {
		t.Fatalf("propagation failures{mean_elements} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.ParseFailures.WithLabelValues("checksum_mismatch")); got != 1 {
		t.Fatalf("parse failures{checksum_mismatch} = %v, want 1", got)
	}
}

func TestCollectorReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewObservationCollector(reg)
	if err != nil {
		t.Fatalf("first NewObservationCollector: %v", err)
	}
	second, err := NewObservationCollector(reg)
	if err != nil {
		t.Fatalf("second NewObservationCollector: %v", err)
	}
	first.IncParseFailure("field_decode")
	if got := testutil.ToFloat64(second.ParseFailures.WithLabelValues("field_decode")); got != 1 {
		t.Fatalf("shared counter = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *ObservationCollector
	c.RecordObservation("observe", nil, time.Millisecond)
	c.IncPropagationFailure("decayed")
	c.IncParseFailure("field_decode")
	c.SetCatalogEntries(3)
	if c.Gatherer() != nil {
		t.Fatalf("nil collector should have nil gatherer")
	}

	var tc *TrackerCollector
	tc.ObserveTick(time.Millisecond, time.Now(), time.Now())
	tc.SetActiveSessions(1)
}

func TestMetricsHandlerExposesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewObservationCollector(reg)
	if err != nil {
		t.Fatalf("NewObservationCollector: %v", err)
	}
	tracker, err := NewTrackerCollector(reg)
	if err != nil {
		t.Fatalf("NewTrackerCollector: %v", err)
	}
	collector.SetCatalogEntries(42)
	collector.RecordObservation("track", nil, time.Millisecond)
	collector.IncPropagationFailure("decayed")
	tracker.SetActiveSessions(7)
	now := time.Now()
	tracker.ObserveTick(5*time.Millisecond, now.Add(30*time.Second), now)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"satobs_observations_total",
		"satobs_observation_duration_seconds",
		"satobs_propagation_failures_total",
		"satobs_catalog_entries 42",
		"satobs_tracker_active_sessions 7",
		"satobs_tracker_ticks_total 1",
		"satobs_tracker_sim_time_lag_seconds 30",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in /metrics output:\n%s", want, body)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
