package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	// Register metrics with Prometheus
	prometheus.MustRegister(trialDuration)
	prometheus.MustRegister(trialResults)
}

var (
	trialDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "refs_stress_trial_duration_seconds",
			Help:    "Time to share, copy and drop one object across all workers",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"shape"},
	)

	trialResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refs_stress_trial_results_total",
			Help: "Stress trials by outcome",
		},
		[]string{"shape", "outcome"},
	)
)

// ObserveTrial records one stress trial.
func ObserveTrial(shape string, d time.Duration, ok bool) {
	trialDuration.WithLabelValues(shape).Observe(d.Seconds())
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	trialResults.WithLabelValues(shape, outcome).Inc()
}

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
