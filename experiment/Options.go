package experiment

import (
	"go.uber.org/zap"

	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/experiment/checkpointer"
	"github.com/samuelfneumann/autolearn/experiment/metric"
	"github.com/samuelfneumann/autolearn/experiment/tracker"
	h "github.com/samuelfneumann/autolearn/hyperparam"
)

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithSchema sets the hyperparameters used on instantiation. Missing
// hyperparameters take their default values.
func WithSchema(flat h.Flat) Option {
	return func(o *Orchestrator) { o.schema = flat.Clone() }
}

// WithRegressor sets the regressor layout of the agent. By default,
// the Variant's default layout is used.
func WithRegressor(l approximator.Layout) Option {
	return func(o *Orchestrator) { o.layout = l }
}

// WithSeed seeds the random number generator of the Orchestrator
func WithSeed(seed uint64) Option {
	return func(o *Orchestrator) { o.seed = seed }
}

// WithDeterministicOutput sets whether policy snapshots are collapsed
// to their deterministic form before evaluation. Defaults to true.
func WithDeterministicOutput(deterministic bool) Option {
	return func(o *Orchestrator) { o.deterministic = deterministic }
}

// WithMetric sets the metric used to evaluate policy snapshots
func WithMetric(m metric.Metric) Option {
	return func(o *Orchestrator) { o.metric = m }
}

// WithRecorder sets the Recorder that runs are reported to
func WithRecorder(r tracker.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithLogger sets the logger of the Orchestrator. A nil logger
// disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRunID sets the identifier of the tracking run that the
// Orchestrator's runs belong to
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// WithStore sets a Store in which the final state of each successful
// run is saved
func WithStore(s checkpointer.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithCheckpointer sets a Checkpointer which is offered the state of a
// run after every evaluation
func WithCheckpointer(c checkpointer.Checkpointer) Option {
	return func(o *Orchestrator) { o.checkpointer = c }
}
