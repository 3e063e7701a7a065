package statistics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	targetDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "shardcore_target_duration_seconds",
		Help: "Duration of one target callback in seconds",
		Buckets: []float64{
			0.0001, // 100µs
			0.0005, // 500µs
			0.001,  // 1ms
			0.005,  // 5ms
			0.01,   // 10ms
			0.05,   // 50ms
			0.1,    // 100ms
			0.5,    // 500ms
			1.0,    // 1s
			5.0,    // 5s
			10.0,   // 10s
		},
	})

	executionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shardcore_executions_total",
		Help: "Total number of fan-out executions",
	})

	failedTargetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shardcore_failed_targets_total",
		Help: "Total number of target callbacks that returned an error",
	})

	inFlightTargets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shardcore_in_flight_targets",
		Help: "Number of target callbacks currently running",
	})
)

func ExecutionStarted() {
	executionsTotal.Inc()
}

func TargetStarted() {
	inFlightTargets.Inc()
}

func TargetFinished(failed bool) {
	inFlightTargets.Dec()
	if failed {
		failedTargetsTotal.Inc()
	}
}
