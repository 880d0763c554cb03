package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(actionsTotal, detectionDuration)
}

var (
	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Pending-action handler runs by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	detectionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_duration_seconds",
			Help:      "Latency of calls to the object detection service.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 30},
		},
		[]string{"success"},
	)
)

// ObserveAction counts a finished pending-action handler.
func ObserveAction(action, result string) {
	actionsTotal.WithLabelValues(norm(action), norm(result)).Inc()
}

// ObserveDetection records one detection call.
func ObserveDetection(took time.Duration, success bool) {
	detectionDuration.WithLabelValues(strconv.FormatBool(success)).Observe(took.Seconds())
}
