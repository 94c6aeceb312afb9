package api

import (
	"time"

	"github.com/Unaro/excel-analytics-sub001/dashboard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	computationDashboard = "dashboard"
	computationGroup     = "group"
	computationHierarchy = "hierarchy"
)

var (
	computationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "analytics",
			Name:      "computation_duration_seconds",
			Help:      "Duration of dashboard, group and hierarchy computations",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"computation"},
	)

	failedMetrics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "analytics",
			Name:      "failed_metrics_total",
			Help:      "Metrics that evaluated to an error instead of a value",
		},
		[]string{"computation"},
	)
)

func observeDuration(computation string, start time.Time) {
	computationDuration.WithLabelValues(computation).Observe(time.Since(start).Seconds())
}

func countDashboardFailures(response dashboard.Response) {
	failures := 0
	for _, group := range response.Groups {
		for _, value := range group.VirtualMetrics {
			if value.Error != "" {
				failures++
			}
		}
	}
	failedMetrics.WithLabelValues(computationDashboard).Add(float64(failures))
}

func countGroupFailures(response dashboard.GroupResponse) {
	failures := 0
	for _, value := range response.Metrics {
		if value.Error != "" {
			failures++
		}
	}
	failedMetrics.WithLabelValues(computationGroup).Add(float64(failures))
}
