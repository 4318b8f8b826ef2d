package inference

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medpredict",
			Subsystem: "inference",
			Name:      "predictions_total",
			Help:      "Total number of verdicts produced, by domain and model label.",
		},
		[]string{"domain", "label"},
	)

	predictionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medpredict",
			Subsystem: "inference",
			Name:      "errors_total",
			Help:      "Total number of failed predictions, by domain and error kind.",
		},
		[]string{"domain", "kind"},
	)

	predictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medpredict",
			Subsystem: "inference",
			Name:      "duration_seconds",
			Help:      "Time spent encoding, scaling and classifying one request.",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .1},
		},
		[]string{"domain"},
	)
)

func init() {
	prometheus.MustRegister(predictionsTotal, predictionErrorsTotal, predictionDuration)
}
