package policy

import (
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/autolearn/approximator"
)

var logSqrt2Pi = 0.5 * math.Log(2*math.Pi)

// Gaussian implements a multi-dimensional linear Gaussian policy with
// diagonal covariance. The mean is a linear function of the state. The
// log standard deviation is either a learned vector independent of the
// state, or a linear function of the state.
type Gaussian struct {
	mean *approximator.Linear

	// Exactly one of logStd and stdHead is non-nil
	logStd  []float64
	stdHead *approximator.Linear

	deterministic bool
	seed          uint64
	source        rand.Source
}

// NewGaussian returns a new Gaussian policy with a state-independent
// standard deviation, initially std in every dimension
func NewGaussian(mean *approximator.Linear, std float64,
	seed uint64) (*Gaussian, error) {
	if mean == nil {
		return nil, fmt.Errorf("newGaussian: mean cannot be nil")
	}
	if std <= 0 {
		return nil, fmt.Errorf("newGaussian: standard deviation must be "+
			"positive, got %v", std)
	}

	logStd := make([]float64, mean.Outputs())
	for i := range logStd {
		logStd[i] = math.Log(std)
	}
	return &Gaussian{mean: mean, logStd: logStd, seed: seed,
		source: rand.NewSource(seed)}, nil
}

// NewStateStdGaussian returns a new Gaussian policy whose log standard
// deviation is computed by logStd, a linear function of the state
func NewStateStdGaussian(mean, logStd *approximator.Linear,
	seed uint64) (*Gaussian, error) {
	if mean == nil || logStd == nil {
		return nil, fmt.Errorf("newStateStdGaussian: mean and standard " +
			"deviation cannot be nil")
	}
	if mean.Outputs() != logStd.Outputs() || mean.Inputs() != logStd.Inputs() {
		return nil, fmt.Errorf("newStateStdGaussian: mean (%v → %v) and "+
			"standard deviation (%v → %v) shapes differ", mean.Inputs(),
			mean.Outputs(), logStd.Inputs(), logStd.Outputs())
	}
	return &Gaussian{mean: mean, stdHead: logStd, seed: seed,
		source: rand.NewSource(seed)}, nil
}

// ActionDims returns the dimension of actions
func (g *Gaussian) ActionDims() int { return g.mean.Outputs() }

// Mean returns the mean of the policy in state obs
func (g *Gaussian) Mean(obs mat.Vector) (*mat.VecDense, error) {
	return g.mean.Predict(obs)
}

// LogStd returns the log standard deviation of the policy in state obs
func (g *Gaussian) LogStd(obs mat.Vector) ([]float64, error) {
	if g.stdHead == nil {
		return append([]float64(nil), g.logStd...), nil
	}
	out, err := g.stdHead.Predict(obs)
	if err != nil {
		return nil, err
	}
	return out.RawVector().Data, nil
}

func (g *Gaussian) moments(obs mat.Vector) (*mat.VecDense, []float64, error) {
	mean, err := g.Mean(obs)
	if err != nil {
		return nil, nil, err
	}
	logStd, err := g.LogStd(obs)
	if err != nil {
		return nil, nil, err
	}
	return mean, logStd, nil
}

// SelectAction samples an action from the policy, or returns the mean
// action if the policy is deterministic
func (g *Gaussian) SelectAction(obs mat.Vector) (*mat.VecDense, error) {
	mean, logStd, err := g.moments(obs)
	if err != nil {
		return nil, fmt.Errorf("selectAction: %w", err)
	}
	if g.deterministic {
		return mean, nil
	}

	action := mat.NewVecDense(mean.Len(), nil)
	for i := 0; i < mean.Len(); i++ {
		dist := distuv.Normal{
			Mu:    mean.AtVec(i),
			Sigma: math.Exp(logStd[i]),
			Src:   g.source,
		}
		action.SetVec(i, dist.Rand())
	}
	return action, nil
}

func (g *Gaussian) checkAction(action mat.Vector) error {
	if action.Len() != g.ActionDims() {
		return fmt.Errorf("action has dimension %v, expected %v", action.Len(),
			g.ActionDims())
	}
	return nil
}

// LogProb returns log π(action | obs)
func (g *Gaussian) LogProb(obs, action mat.Vector) (float64, error) {
	if err := g.checkAction(action); err != nil {
		return 0, fmt.Errorf("logProb: %w", err)
	}
	mean, logStd, err := g.moments(obs)
	if err != nil {
		return 0, fmt.Errorf("logProb: %w", err)
	}

	lp := 0.0
	for i := range logStd {
		z := (action.AtVec(i) - mean.AtVec(i)) / math.Exp(logStd[i])
		lp += -0.5*z*z - logStd[i] - logSqrt2Pi
	}
	return lp, nil
}

// GradLogProb adds scale × ∇ log π(action | obs) to grad
func (g *Gaussian) GradLogProb(grad []float64, obs, action mat.Vector,
	scale float64) error {
	if err := checkLength("gradLogProb", len(grad), g.NumParams()); err != nil {
		return err
	}
	if err := g.checkAction(action); err != nil {
		return fmt.Errorf("gradLogProb: %w", err)
	}
	mean, logStd, err := g.moments(obs)
	if err != nil {
		return fmt.Errorf("gradLogProb: %w", err)
	}

	meanGrad, stdGrad := g.split(grad)
	for i := range logStd {
		variance := math.Exp(2 * logStd[i])
		diff := action.AtVec(i) - mean.AtVec(i)

		// ∂/∂μ = (a - μ) / σ²
		if err := g.mean.AddGradient(meanGrad, obs, i,
			scale*diff/variance); err != nil {
			return fmt.Errorf("gradLogProb: %w", err)
		}

		// ∂/∂log σ = (a - μ)² / σ² - 1
		if err := g.addStdGradient(stdGrad, obs, i,
			scale*(diff*diff/variance-1)); err != nil {
			return fmt.Errorf("gradLogProb: %w", err)
		}
	}
	return nil
}

// Entropy returns the differential entropy of π(· | obs)
func (g *Gaussian) Entropy(obs mat.Vector) (float64, error) {
	logStd, err := g.LogStd(obs)
	if err != nil {
		return 0, fmt.Errorf("entropy: %w", err)
	}
	h := 0.0
	for _, ls := range logStd {
		h += ls + 0.5 + logSqrt2Pi
	}
	return h, nil
}

// GradEntropy adds scale × ∇ H(π(· | obs)) to grad
func (g *Gaussian) GradEntropy(grad []float64, obs mat.Vector,
	scale float64) error {
	if err := checkLength("gradEntropy", len(grad), g.NumParams()); err != nil {
		return err
	}
	_, stdGrad := g.split(grad)
	for i := 0; i < g.ActionDims(); i++ {
		if err := g.addStdGradient(stdGrad, obs, i, scale); err != nil {
			return fmt.Errorf("gradEntropy: %w", err)
		}
	}
	return nil
}

func (g *Gaussian) addStdGradient(grad []float64, obs mat.Vector, i int,
	scale float64) error {
	if g.stdHead == nil {
		grad[i] += scale
		return nil
	}
	return g.stdHead.AddGradient(grad, obs, i, scale)
}

// split splits a parameter-shaped slice into its mean and standard
// deviation parts
func (g *Gaussian) split(p []float64) (mean, std []float64) {
	n := g.mean.NumParams()
	return p[:n], p[n:]
}

func (g *Gaussian) numStdParams() int {
	if g.stdHead == nil {
		return len(g.logStd)
	}
	return g.stdHead.NumParams()
}

// NumParams returns the number of parameters of the policy
func (g *Gaussian) NumParams() int {
	return g.mean.NumParams() + g.numStdParams()
}

// Params returns a copy of the parameters of the policy: the mean
// weights followed by the standard deviation weights
func (g *Gaussian) Params() []float64 {
	p := append([]float64(nil), g.mean.Params()...)
	if g.stdHead == nil {
		return append(p, g.logStd...)
	}
	return append(p, g.stdHead.Params()...)
}

// SetParams sets the parameters of the policy
func (g *Gaussian) SetParams(p []float64) error {
	if err := checkLength("setParams", len(p), g.NumParams()); err != nil {
		return err
	}
	mean, std := g.split(p)
	if err := g.mean.SetParams(mean); err != nil {
		return err
	}
	if g.stdHead == nil {
		copy(g.logStd, std)
		return nil
	}
	return g.stdHead.SetParams(std)
}

// Clone returns a deep copy of the policy
func (g *Gaussian) Clone(seed uint64) Policy {
	clone := *g
	clone.mean = g.mean.Clone()
	if g.stdHead != nil {
		clone.stdHead = g.stdHead.Clone()
	} else {
		clone.logStd = append([]float64(nil), g.logStd...)
	}
	clone.seed = seed
	clone.source = rand.NewSource(seed)
	return &clone
}

// Deterministic returns a copy of the policy which always selects the
// mean action
func (g *Gaussian) Deterministic() Policy {
	clone := g.Clone(g.seed).(*Gaussian)
	clone.deterministic = true
	return clone
}

// IsDeterministic returns whether the policy always selects the mean
// action
func (g *Gaussian) IsDeterministic() bool { return g.deterministic }

type gaussianState struct {
	Mean    approximator.Record  `json:"mean"`
	LogStd  []float64            `json:"log_std,omitempty"`
	StdHead *approximator.Record `json:"std_head,omitempty"`
}

// Record returns the serializable form of the policy
func (g *Gaussian) Record() (Record, error) {
	state := gaussianState{Mean: g.mean.Record()}
	if g.stdHead != nil {
		r := g.stdHead.Record()
		state.StdHead = &r
	} else {
		state.LogStd = append([]float64(nil), g.logStd...)
	}
	return newRecord(GaussianType, g.deterministic, g.seed, state)
}

func gaussianFromRecord(r Record) (*Gaussian, error) {
	var state gaussianState
	if err := json.Unmarshal(r.State, &state); err != nil {
		return nil, err
	}

	mean, err := approximator.FromRecord(state.Mean)
	if err != nil {
		return nil, err
	}

	var g *Gaussian
	if state.StdHead != nil {
		head, err := approximator.FromRecord(*state.StdHead)
		if err != nil {
			return nil, err
		}
		if g, err = NewStateStdGaussian(mean, head, r.Seed); err != nil {
			return nil, err
		}
	} else {
		if len(state.LogStd) != mean.Outputs() {
			return nil, fmt.Errorf("%v log standard deviations for %v "+
				"action dimensions", len(state.LogStd), mean.Outputs())
		}
		if g, err = NewGaussian(mean, 1, r.Seed); err != nil {
			return nil, err
		}
		copy(g.logStd, state.LogStd)
	}

	g.deterministic = r.Deterministic
	return g, nil
}
