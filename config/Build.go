package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/experiment"
	"github.com/samuelfneumann/autolearn/experiment/checkpointer"
	"github.com/samuelfneumann/autolearn/experiment/metric"
	"github.com/samuelfneumann/autolearn/experiment/tracker"
	"github.com/samuelfneumann/autolearn/generator"
)

// NewEnvironment creates the environment of the run
func (r Run) NewEnvironment() (environment.Environment, error) {
	env, err := r.Environment.Create(r.Seed)
	if err != nil {
		return nil, fmt.Errorf("newEnvironment: %w", err)
	}
	return env, nil
}

// Recorder returns the Recorder runs are reported to
func (r Run) Recorder() tracker.Recorder {
	if r.Tracker.Disabled {
		return tracker.Nop{}
	}
	return tracker.NewHTTP(r.Tracker.URL, r.Tracker.Timeout)
}

// NewOrchestrator returns an Orchestrator configured by the Run. The
// returned function releases the resources of the Orchestrator and must
// be called once the Orchestrator is no longer used.
func (r Run) NewOrchestrator(ctx context.Context,
	logger *zap.Logger) (*experiment.Orchestrator, func() error, error) {
	const op = "newOrchestrator"
	release := func() error { return nil }

	schema, err := generator.Schema(r.Variant)
	if err != nil {
		return nil, release, fmt.Errorf("%v: %w", op, err)
	}
	if len(r.Hyperparameters) > 0 {
		schema, err = schema.Override(r.Hyperparameters)
		if err != nil {
			return nil, release, fmt.Errorf("%v: hyperparameters: %w", op,
				err)
		}
	}

	m, err := metric.NewDiscountedReward(r.Evaluation.Episodes,
		r.Evaluation.Workers, r.Seed)
	if err != nil {
		return nil, release, fmt.Errorf("%v: %w", op, err)
	}

	opts := []experiment.Option{
		experiment.WithSchema(schema),
		experiment.WithRegressor(r.Regressor),
		experiment.WithSeed(r.Seed),
		experiment.WithDeterministicOutput(r.Deterministic()),
		experiment.WithMetric(m),
		experiment.WithRecorder(r.Recorder()),
		experiment.WithLogger(logger),
		experiment.WithRunID(r.RunID),
	}

	if r.Store.Kind != "" {
		store, err := checkpointer.NewStore(r.Store.Kind, r.Store.Path)
		if err != nil {
			return nil, release, fmt.Errorf("%v: %w", op, err)
		}
		if err := store.Init(ctx); err != nil {
			return nil, release, fmt.Errorf("%v: %w", op, err)
		}
		release = store.Close
		opts = append(opts, experiment.WithStore(store))

		if r.Store.Every > 0 {
			c, err := checkpointer.NewNStep(r.Store.Every, store)
			if err != nil {
				return nil, release, fmt.Errorf("%v: %w", op, err)
			}
			opts = append(opts, experiment.WithCheckpointer(c))
		}
	}

	o, err := experiment.New(r.Variant, opts...)
	if err != nil {
		return nil, release, fmt.Errorf("%v: %w", op, err)
	}
	return o, release, nil
}
