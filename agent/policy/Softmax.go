package policy

import (
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/utils/matutils"
)

// Softmax implements a Boltzmann policy over linear action preferences
// h(s, ·):
//
//	π(a | s) ∝ exp(β h(s, a))
//
// where β is the inverse temperature.
type Softmax struct {
	logits *approximator.Linear
	beta   float64

	deterministic bool
	seed          uint64
	source        rand.Source
}

// NewSoftmax returns a new Softmax policy whose action preferences are
// the outputs of logits, one per action
func NewSoftmax(logits *approximator.Linear, beta float64,
	seed uint64) (*Softmax, error) {
	if logits == nil {
		return nil, fmt.Errorf("newSoftmax: logits cannot be nil")
	}
	if beta <= 0 {
		return nil, fmt.Errorf("newSoftmax: β must be positive, got %v", beta)
	}
	return &Softmax{logits: logits, beta: beta, seed: seed,
		source: rand.NewSource(seed)}, nil
}

// Beta returns the inverse temperature of the policy
func (p *Softmax) Beta() float64 { return p.beta }

// Probabilities returns π(· | obs)
func (p *Softmax) Probabilities(obs mat.Vector) ([]float64, error) {
	h, err := p.logits.Predict(obs)
	if err != nil {
		return nil, fmt.Errorf("probabilities: %w", err)
	}
	return matutils.Softmax(h.RawVector().Data, p.beta), nil
}

// SelectAction samples an action from the policy, or selects the most
// probable action if the policy is deterministic
func (p *Softmax) SelectAction(obs mat.Vector) (*mat.VecDense, error) {
	probs, err := p.Probabilities(obs)
	if err != nil {
		return nil, fmt.Errorf("selectAction: %w", err)
	}

	var a float64
	if p.deterministic {
		a = float64(matutils.MaxVec(mat.NewVecDense(len(probs), probs)))
	} else {
		a = distuv.NewCategorical(probs, p.source).Rand()
	}
	return mat.NewVecDense(1, []float64{a}), nil
}

func (p *Softmax) action(a mat.Vector) (int, error) {
	if a.Len() != 1 {
		return 0, fmt.Errorf("action must be 1-dimensional, got %v", a.Len())
	}
	i := int(a.AtVec(0))
	if i < 0 || i >= p.logits.Outputs() {
		return 0, fmt.Errorf("action %v ∉ [0, %v)", i, p.logits.Outputs())
	}
	return i, nil
}

// LogProb returns log π(action | obs)
func (p *Softmax) LogProb(obs, action mat.Vector) (float64, error) {
	a, err := p.action(action)
	if err != nil {
		return 0, fmt.Errorf("logProb: %w", err)
	}
	probs, err := p.Probabilities(obs)
	if err != nil {
		return 0, fmt.Errorf("logProb: %w", err)
	}
	return math.Log(probs[a]), nil
}

// GradLogProb adds scale × ∇ log π(action | obs) to grad
func (p *Softmax) GradLogProb(grad []float64, obs, action mat.Vector,
	scale float64) error {
	if err := checkLength("gradLogProb", len(grad), p.NumParams()); err != nil {
		return err
	}
	a, err := p.action(action)
	if err != nil {
		return fmt.Errorf("gradLogProb: %w", err)
	}
	probs, err := p.Probabilities(obs)
	if err != nil {
		return fmt.Errorf("gradLogProb: %w", err)
	}

	// ∂ log π(a|s) / ∂h_k = β (𝟙[k = a] - π(k|s))
	for k, prob := range probs {
		coeff := -prob
		if k == a {
			coeff += 1
		}
		if err := p.logits.AddGradient(grad, obs, k,
			scale*p.beta*coeff); err != nil {
			return fmt.Errorf("gradLogProb: %w", err)
		}
	}
	return nil
}

// Entropy returns the entropy of π(· | obs)
func (p *Softmax) Entropy(obs mat.Vector) (float64, error) {
	probs, err := p.Probabilities(obs)
	if err != nil {
		return 0, fmt.Errorf("entropy: %w", err)
	}
	return entropy(probs), nil
}

// GradEntropy adds scale × ∇ H(π(· | obs)) to grad
func (p *Softmax) GradEntropy(grad []float64, obs mat.Vector,
	scale float64) error {
	if err := checkLength("gradEntropy", len(grad), p.NumParams()); err != nil {
		return err
	}
	probs, err := p.Probabilities(obs)
	if err != nil {
		return fmt.Errorf("gradEntropy: %w", err)
	}
	h := entropy(probs)

	// ∂H / ∂h_k = -β π(k|s) (log π(k|s) + H)
	for k, prob := range probs {
		if prob == 0 {
			continue
		}
		coeff := -p.beta * prob * (math.Log(prob) + h)
		if err := p.logits.AddGradient(grad, obs, k, scale*coeff); err != nil {
			return fmt.Errorf("gradEntropy: %w", err)
		}
	}
	return nil
}

func entropy(probs []float64) float64 {
	h := 0.0
	for _, prob := range probs {
		if prob > 0 {
			h -= prob * math.Log(prob)
		}
	}
	return h
}

// NumParams returns the number of parameters of the policy
func (p *Softmax) NumParams() int { return p.logits.NumParams() }

// Params returns a copy of the parameters of the policy
func (p *Softmax) Params() []float64 {
	return append([]float64(nil), p.logits.Params()...)
}

// SetParams sets the parameters of the policy
func (p *Softmax) SetParams(params []float64) error {
	return p.logits.SetParams(params)
}

// Clone returns a deep copy of the policy
func (p *Softmax) Clone(seed uint64) Policy {
	clone := *p
	clone.logits = p.logits.Clone()
	clone.seed = seed
	clone.source = rand.NewSource(seed)
	return &clone
}

// Deterministic returns a copy of the policy which always selects the
// most probable action
func (p *Softmax) Deterministic() Policy {
	clone := p.Clone(p.seed).(*Softmax)
	clone.deterministic = true
	return clone
}

// IsDeterministic returns whether the policy always selects the most
// probable action
func (p *Softmax) IsDeterministic() bool { return p.deterministic }

type softmaxState struct {
	Logits approximator.Record `json:"logits"`
	Beta   float64             `json:"beta"`
}

// Record returns the serializable form of the policy
func (p *Softmax) Record() (Record, error) {
	return newRecord(SoftmaxType, p.deterministic, p.seed,
		softmaxState{p.logits.Record(), p.beta})
}

func softmaxFromRecord(r Record) (*Softmax, error) {
	var state softmaxState
	if err := json.Unmarshal(r.State, &state); err != nil {
		return nil, err
	}

	logits, err := approximator.FromRecord(state.Logits)
	if err != nil {
		return nil, err
	}

	p, err := NewSoftmax(logits, state.Beta, r.Seed)
	if err != nil {
		return nil, err
	}
	p.deterministic = r.Deterministic
	return p, nil
}
