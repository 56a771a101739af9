package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	runOutcomeSuccess = "success"
	runOutcomeFailure = "failure"
)

// HousekeepingMetrics records background job runs such as the cart sweep.
type HousekeepingMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	swept       prometheus.Counter
}

func NewHousekeepingMetrics(reg prometheus.Registerer) *HousekeepingMetrics {
	if reg == nil {
		return &HousekeepingMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_housekeeping_runs_total",
		Help: "Housekeeping job runs by outcome.",
	}, []string{"job", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_housekeeping_duration_seconds",
		Help:    "Duration of housekeeping job runs.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"job"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "storefront_housekeeping_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run per job.",
	}, []string{"job"})
	swept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_sessions_swept_total",
		Help: "Idle cart sessions dropped by the sweep.",
	})
	reg.MustRegister(runs, duration, lastSuccess, swept)
	return &HousekeepingMetrics{
		runs:        runs,
		duration:    duration,
		lastSuccess: lastSuccess,
		swept:       swept,
	}
}

// ObserveRun records one run of job; a nil err counts as success.
func (h *HousekeepingMetrics) ObserveRun(job string, duration time.Duration, err error) {
	if h == nil || h.runs == nil {
		return
	}
	job = normalizeLabel(job)
	h.duration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		h.runs.WithLabelValues(job, runOutcomeFailure).Inc()
		return
	}
	h.runs.WithLabelValues(job, runOutcomeSuccess).Inc()
	h.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

func (h *HousekeepingMetrics) AddSwept(n int) {
	if h == nil || h.swept == nil || n <= 0 {
		return
	}
	h.swept.Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
