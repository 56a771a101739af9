package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHousekeepingMetricsSplitRunsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHousekeepingMetrics(reg)

	m.ObserveRun("cart-session-sweep", 20*time.Millisecond, nil)
	m.ObserveRun("cart-session-sweep", 10*time.Millisecond, nil)
	m.ObserveRun("cart-session-sweep", 5*time.Millisecond, errors.New("boom"))
	m.AddSwept(4)
	m.AddSwept(0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	success := map[string]string{"job": "cart-session-sweep", "outcome": "success"}
	if got, err := fetchCounterValue(mfs, "storefront_housekeeping_runs_total", success); err != nil || got != 2 {
		t.Fatalf("expected 2 successful runs, got %f (%v)", got, err)
	}
	failure := map[string]string{"job": "cart-session-sweep", "outcome": "failure"}
	if got, err := fetchCounterValue(mfs, "storefront_housekeeping_runs_total", failure); err != nil || got != 1 {
		t.Fatalf("expected 1 failed run, got %f (%v)", got, err)
	}

	hist, err := findMetric(mfs, "storefront_housekeeping_duration_seconds", map[string]string{"job": "cart-session-sweep"})
	if err != nil || hist.GetHistogram().GetSampleCount() != 3 {
		t.Fatalf("expected 3 duration samples (%v)", err)
	}

	last, err := findMetric(mfs, "storefront_housekeeping_last_success_timestamp_seconds", map[string]string{"job": "cart-session-sweep"})
	if err != nil || last.GetGauge().GetValue() <= 0 {
		t.Fatalf("expected last success timestamp (%v)", err)
	}

	if got, err := fetchCounterValue(mfs, "storefront_cart_sessions_swept_total", nil); err != nil || got != 4 {
		t.Fatalf("expected 4 swept sessions, got %f (%v)", got, err)
	}
}

func TestNilHousekeepingMetricsAreSafe(t *testing.T) {
	var m *HousekeepingMetrics
	m.ObserveRun("sweep", time.Second, nil)
	m.AddSwept(1)

	NewHousekeepingMetrics(nil).ObserveRun("", time.Second, errors.New("boom"))
}
