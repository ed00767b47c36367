package experiment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsTotal counts finished runs.
	// Labels: variant, outcome (finished, cancelled, failed, empty)
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autolearn",
		Subsystem: "orchestrator",
		Name:      "runs_total",
		Help:      "Total training runs by outcome",
	}, []string{"variant", "outcome"})

	epochsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autolearn",
		Subsystem: "orchestrator",
		Name:      "epochs_total",
		Help:      "Total completed training epochs",
	}, []string{"variant"})

	warmUpStepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autolearn",
		Subsystem: "orchestrator",
		Name:      "warm_up_steps_total",
		Help:      "Total environment steps taken to fill replay buffers",
	}, []string{"variant"})

	// lastScore is the score of the most recent evaluation
	lastScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "autolearn",
		Subsystem: "orchestrator",
		Name:      "last_score",
		Help:      "Score of the most recent policy evaluation",
	}, []string{"variant"})

	// telemetryFailures counts records which could not be reported.
	// Labels: variant, record (model, log, checkpoint)
	telemetryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autolearn",
		Subsystem: "orchestrator",
		Name:      "telemetry_failures_total",
		Help:      "Total records which could not be reported",
	}, []string{"variant", "record"})
)
