// Package experiment implements the Orchestrator, which binds
// hyperparameters to a learning agent and trains it in epochs, each
// followed by an evaluation of a snapshot of the agent's policy
package experiment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/agent/policy"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/experiment/checkpointer"
	"github.com/samuelfneumann/autolearn/experiment/metric"
	"github.com/samuelfneumann/autolearn/experiment/tracker"
	"github.com/samuelfneumann/autolearn/generator"
	h "github.com/samuelfneumann/autolearn/hyperparam"
)

// State is the lifecycle state of an Orchestrator
type State int

const (
	Uninitialized State = iota
	Instantiated
	Running
	Finished
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Instantiated:
		return "Instantiated"
	case Running:
		return "Running"
	case Finished:
		return "Finished"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Default evaluation settings, used when no metric is configured
const (
	DefaultEvalEpisodes = 10
	DefaultEvalWorkers  = 4
)

// binding is an agent together with the hyperparameters it was built
// from. Bindings are replaced whole.
type binding struct {
	assembly  *generator.Assembly
	persisted *h.Set
	agent     agent.Agent
	config    agent.Config
}

// Orchestrator trains agents of a single Variant. An Orchestrator must
// be instantiated for an environment before its hyperparameters can be
// set or it can be run.
//
// Runs are strictly sequential: an Orchestrator runs at most one
// training run at a time.
type Orchestrator struct {
	variant       generator.Variant
	schema        h.Flat
	layout        approximator.Layout
	seed          uint64
	deterministic bool
	metric        metric.Metric
	recorder      tracker.Recorder
	store         checkpointer.Store
	checkpointer  checkpointer.Checkpointer
	logger        *zap.Logger
	runID         string

	// rng is owned by the Orchestrator and seeds everything random it
	// creates: agents, warm-up actions, and policy snapshots
	rng *rand.Rand

	mu      sync.Mutex
	state   State
	desc    *environment.Descriptor
	bound   *binding
	history *History
}

// New returns a new, uninitialized Orchestrator for a Variant
func New(v generator.Variant, opts ...Option) (*Orchestrator, error) {
	if err := v.Valid(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	o := &Orchestrator{
		variant:       v,
		deterministic: true,
		recorder:      tracker.Nop{},
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.rng = rand.New(rand.NewSource(o.seed))
	if o.metric == nil {
		m, err := metric.NewDiscountedReward(DefaultEvalEpisodes,
			DefaultEvalWorkers, o.rng.Uint64())
		if err != nil {
			return nil, fmt.Errorf("new: %w", err)
		}
		o.metric = m
	}
	o.logger = o.logger.With(zap.String("variant", v.String()))
	return o, nil
}

// Variant returns the Variant of agents the Orchestrator trains
func (o *Orchestrator) Variant() generator.Variant { return o.variant }

// State returns the current state of the Orchestrator
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Instantiate binds the Orchestrator to an environment described by
// desc, building an agent from the configured hyperparameters. A
// Variant which cannot learn in the environment is a configuration
// error. On error, the Orchestrator is unchanged.
func (o *Orchestrator) Instantiate(desc environment.Descriptor) error {
	const op = "instantiate"

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == Running {
		return configurationErrorf(op, "cannot instantiate while running")
	}

	def, err := generator.Lookup(o.variant)
	if err != nil {
		return newError(op, ErrConfiguration, err)
	}
	if err := def.Capabilities.Supports(desc); err != nil {
		return newError(op, ErrConfiguration, err)
	}

	b, err := o.bind(o.schema, desc)
	if err != nil {
		return newError(op, ErrConstruction, err)
	}

	o.desc = &desc
	o.bound = b
	o.state = Instantiated
	o.logger.Debug("instantiated", zap.String("environment", desc.Name),
		zap.Stringer("params", b.persisted))
	return nil
}

// SetParams rebuilds the agent with new hyperparameters. Hyperparameters
// missing from flat keep their current values. The hyperparameters and
// agent are replaced together, and only if the new agent could be
// built; on error the Orchestrator is unchanged.
func (o *Orchestrator) SetParams(flat h.Flat) error {
	const op = "setParams"

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.desc == nil {
		return configurationErrorf(op, "orchestrator must be instantiated "+
			"before its parameters are set")
	}
	if o.state == Running {
		return configurationErrorf(op, "cannot set parameters while running")
	}

	current, err := o.bound.persisted.Flatten()
	if err != nil {
		return newError(op, ErrConfiguration, err)
	}
	for key, leaf := range flat {
		current[key] = leaf
	}

	b, err := o.bind(current, *o.desc)
	if err != nil {
		return newError(op, ErrConstruction, err)
	}

	o.bound = b
	o.state = Instantiated
	return nil
}

// bind assembles hyperparameters and builds an agent from them. The
// persisted tree is only computed once the agent has been built.
func (o *Orchestrator) bind(flat h.Flat,
	desc environment.Descriptor) (*binding, error) {
	a, err := generator.Assemble(o.variant, flat, o.layout, desc)
	if err != nil {
		return nil, err
	}
	for _, key := range a.Ignored {
		o.logger.Warn("ignoring unknown hyperparameter", zap.String("key", key))
	}

	ag, config, err := generator.Build(a, desc, o.rng.Uint64())
	if err != nil {
		return nil, err
	}

	persisted, err := a.Persisted()
	if err != nil {
		return nil, err
	}
	return &binding{assembly: a, persisted: persisted, agent: ag,
		config: config}, nil
}

// Params returns a copy of the persisted hyperparameter tree
func (o *Orchestrator) Params() (*h.Set, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bound == nil {
		return nil, configurationErrorf("params", "orchestrator is not "+
			"instantiated")
	}
	return o.bound.persisted.Clone(), nil
}

// Controls returns the training controls of the current hyperparameters
func (o *Orchestrator) Controls() (generator.Controls, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bound == nil {
		return generator.Controls{}, configurationErrorf("controls",
			"orchestrator is not instantiated")
	}
	return o.bound.assembly.Controls, nil
}

// Config returns the configuration of the current agent
func (o *Orchestrator) Config() (agent.TypedConfig, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bound == nil {
		return agent.TypedConfig{}, configurationErrorf("config",
			"orchestrator is not instantiated")
	}
	return agent.NewTypedConfig(o.bound.config), nil
}

// Descriptor returns the descriptor of the environment the
// Orchestrator was instantiated for
func (o *Orchestrator) Descriptor() (environment.Descriptor, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.desc == nil {
		return environment.Descriptor{}, configurationErrorf("descriptor",
			"orchestrator is not instantiated")
	}
	return *o.desc, nil
}

// History returns a copy of the evaluation history of the latest run,
// or nil if nothing has been run
func (o *Orchestrator) History() *History {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.history == nil {
		return nil
	}
	return o.history.Clone()
}

// Run trains the agent in env. Run never panics and never returns
// errors directly: failures are reported through the Result. A run
// rejected before it started returns an empty Result.
//
// Cancelling ctx stops the run at the next epoch boundary; the run is
// still torn down and reported as finished.
func (o *Orchestrator) Run(ctx context.Context,
	env environment.Environment) (res Result) {
	const op = "run"

	res = Result{Variant: o.variant}
	defer func() {
		runsTotal.WithLabelValues(o.variant.String(), res.outcome()).Inc()
	}()

	b, desc, err := o.start(env)
	if err != nil {
		res.Err = err
		o.logger.Error("run rejected", zap.Error(err))
		return res
	}

	runID := o.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	r := &run{
		Orchestrator: o,
		ctx:          ctx,
		work:         context.WithoutCancel(ctx),
		env:          env,
		desc:         desc,
		binding:      b,
		runID:        runID,
		history:      NewHistory(),
		logger:       o.logger.With(zap.String("run_id", runID)),
	}

	res.Attempted = true
	res.RunID = runID
	res.Params = b.persisted.Clone()

	func() {
		defer func() {
			if p := recover(); p != nil {
				r.err = newError(op, ErrTraining, fmt.Errorf("panic: %v", p))
			}
		}()
		r.err = r.execute()
	}()

	o.teardown(r)

	res.Successful = r.err == nil
	res.Cancelled = r.cancelled
	res.Snapshot = r.snapshot
	res.History = r.history.Clone()
	res.Err = r.err
	return res
}

// start validates that a run can start in env and moves the
// Orchestrator to Running
func (o *Orchestrator) start(env environment.Environment) (*binding,
	environment.Descriptor, error) {
	const op = "run"

	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.state != Instantiated:
		return nil, environment.Descriptor{}, configurationErrorf(op,
			"orchestrator must be instantiated, it is %v", o.state)
	case env == nil:
		return nil, environment.Descriptor{}, configurationErrorf(op,
			"environment is required")
	}

	desc := environment.Describe(env)
	if !desc.Compatible(*o.desc) {
		return nil, environment.Descriptor{}, configurationErrorf(op,
			"environment %v does not match the environment %v the "+
				"orchestrator was instantiated for", desc.Name, o.desc.Name)
	}

	o.state = Running
	o.history = nil
	return o.bound, desc, nil
}

// teardown records the end of a run and drops the live agent
func (o *Orchestrator) teardown(r *run) {
	r.finish()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.history = r.history.Clone()
	o.state = Finished
	if r.err != nil {
		o.state = Failed
	}

	// The agent may hold large buffers of experience; later runs need
	// a new agent
	o.bound = &binding{assembly: o.bound.assembly,
		persisted: o.bound.persisted, config: o.bound.config}

	if r.err != nil {
		r.logger.Error("run failed", zap.Error(r.err),
			zap.Int("evaluations", r.history.Len()))
		return
	}
	r.logger.Info("run finished", zap.Bool("cancelled", r.cancelled),
		zap.Int("evaluations", r.history.Len()))
}

// run is the session state of a single training run
type run struct {
	*Orchestrator

	// ctx is only checked between epochs. Work within an epoch and
	// reporting use work, which is never cancelled.
	ctx     context.Context
	work    context.Context
	env     environment.Environment
	desc    environment.Descriptor
	binding *binding
	runID   string
	logger  *zap.Logger

	history   *History
	snapshot  *agent.Snapshot
	model     *tracker.ModelRecord
	cancelled bool
	epochs    int
	err       error
}

func (r *run) execute() error {
	c := &core{env: r.env, agent: r.binding.agent}
	controls := r.binding.assembly.Controls
	variant := r.variant.String()

	if f, ok := r.binding.agent.(agent.Filler); ok && f.WarmUp() > 0 {
		r.logger.Info("filling replay buffer", zap.Int("steps", f.WarmUp()))
		if err := c.warmUp(f, f.WarmUp(), r.desc.Action, r.rng); err != nil {
			return newError("warmUp", ErrTraining, err)
		}
		warmUpStepsTotal.WithLabelValues(variant).Add(float64(f.WarmUp()))
	}

	baseline, err := r.evaluate(0)
	if err != nil {
		return err
	}
	r.register()
	r.logger.Info("starting evaluation", zap.Float64("score", baseline.Score))

	stepsPerEpoch := controls.StepsPerEpoch(r.desc.Horizon)
	for epoch := 1; epoch <= controls.Epochs; epoch++ {
		if err := r.ctx.Err(); err != nil {
			r.cancelled = true
			r.logger.Info("run cancelled", zap.Int("epoch", epoch),
				zap.Error(err))
			return nil
		}

		if err := c.learn(controls); err != nil {
			return newError("learn", ErrTraining, err)
		}

		eval, err := r.evaluate(epoch * stepsPerEpoch)
		if err != nil {
			return err
		}
		r.epochs = epoch
		epochsTotal.WithLabelValues(variant).Inc()
		r.logger.Info("epoch finished", zap.Int("epoch", epoch),
			zap.Float64("score", eval.Score))

		r.report(epoch-1, eval)
		r.checkpoint(epoch)
	}
	return nil
}

// evaluate snapshots the live policy, evaluates the snapshot, and
// records its returns at step
func (r *run) evaluate(step int) (metric.Evaluation, error) {
	const op = "evaluate"

	s := agent.NewSnapshot(r.binding.agent.Policy(), r.rng.Uint64())
	if r.deterministic {
		s = s.Collapse()
	}

	eval, err := r.metric.Evaluate(r.work, s, r.env)
	if err != nil {
		return metric.Evaluation{}, newError(op, ErrEvaluation, err)
	}
	if err := r.history.Append(step, eval.Returns); err != nil {
		return metric.Evaluation{}, newError(op, ErrEvaluation, err)
	}

	r.snapshot = s
	lastScore.WithLabelValues(r.variant.String()).Set(eval.Score)
	return eval, nil
}

// register registers the model of the run with the Recorder
func (r *run) register() {
	m, err := tracker.NewModelRecord(r.runID, r.desc.Name, r.binding.persisted)
	if err != nil {
		r.telemetryFailed("model", err)
		return
	}
	r.model = &m
	if err := r.recorder.RegisterModel(r.work, m); err != nil {
		r.telemetryFailed("model", err)
	}
}

// report sends one log record per evaluated episode to the Recorder
func (r *run) report(epoch int, eval metric.Evaluation) {
	if r.model == nil {
		return
	}

	episodes := make([]tracker.Episode, eval.Episodes())
	for i := range episodes {
		episodes[i] = tracker.Episode{
			States:  eval.States[i],
			Actions: eval.Actions[i],
			Score:   eval.Scores[i],
		}
	}

	logs, err := tracker.NewLogRecords(*r.model, epoch, episodes, eval.Score)
	if err != nil {
		r.telemetryFailed("log", err)
		return
	}
	if err := r.recorder.Log(r.work, logs); err != nil {
		r.telemetryFailed("log", err)
	}
}

func (r *run) record(epoch int) (checkpointer.Record, error) {
	rec, err := checkpointer.NewRecord(r.runID, r.variant.String(), epoch,
		r.binding.persisted, r.snapshot)
	if err != nil {
		return checkpointer.Record{}, err
	}
	config := agent.NewTypedConfig(r.binding.config)
	rec.Agent = &config
	return rec, nil
}

// checkpoint offers the state of the run to the Checkpointer
func (r *run) checkpoint(epoch int) {
	if r.checkpointer == nil {
		return
	}
	err := r.checkpointer.Checkpoint(r.work, epoch, func() (checkpointer.Record,
		error) {
		return r.record(epoch)
	})
	if err != nil {
		r.telemetryFailed("checkpoint", err)
	}
}

// finish marks the registered model finished and saves the final state
// of a successful run
func (r *run) finish() {
	if r.err != nil {
		return
	}
	ctx := r.work

	if r.model != nil {
		var final *policy.Record
		if r.snapshot != nil {
			if p, err := r.snapshot.Record(); err == nil {
				final = &p
			}
		}
		m, err := r.model.Finish(final)
		if err != nil {
			r.telemetryFailed("model", err)
		} else if err := r.recorder.RegisterModel(ctx, m); err != nil {
			r.telemetryFailed("model", err)
		}
	}

	if r.store != nil && r.snapshot != nil {
		rec, err := r.record(r.epochs)
		if err == nil {
			err = r.store.Save(ctx, rec)
		}
		if err != nil {
			r.telemetryFailed("checkpoint", err)
		}
	}
}

func (r *run) telemetryFailed(record string, err error) {
	telemetryFailures.WithLabelValues(r.variant.String(), record).Inc()
	r.logger.Warn("telemetry failed", zap.String("record", record),
		zap.Error(&Error{Op: "report", Kind: ErrTelemetry, Err: err}))
}
