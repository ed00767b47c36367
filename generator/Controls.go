package generator

import (
	"fmt"

	"github.com/samuelfneumann/autolearn/hyperparam"
)

// Controls determine how long an agent is trained. Training is
// controlled either by steps (Steps and StepsPerFit are positive and
// the episode fields are zero) or by episodes (the reverse).
type Controls struct {
	Epochs         int `json:"n_epochs"`
	Steps          int `json:"n_steps,omitempty"`
	StepsPerFit    int `json:"n_steps_per_fit,omitempty"`
	Episodes       int `json:"n_episodes,omitempty"`
	EpisodesPerFit int `json:"n_episodes_per_fit,omitempty"`
}

// BySteps returns whether training is controlled by step counts
func (c Controls) BySteps() bool { return c.Steps > 0 }

// StepsPerEpoch returns the number of environment steps counted for
// one epoch of training: the step count, or the maximum length of the
// configured number of episodes.
func (c Controls) StepsPerEpoch(horizon int) int {
	if c.BySteps() {
		return c.Steps
	}
	return horizon * c.Episodes
}

// controlKeys are the names of all control hyperparameters
var controlKeys = []string{EpochsKey, StepsKey, StepsPerFitKey, EpisodesKey,
	EpisodesPerFitKey}

func isControl(key string) bool {
	for _, k := range controlKeys {
		if k == key {
			return true
		}
	}
	return false
}

// controlsFrom extracts and validates the training controls. Exactly
// one of the control pairs {n_steps, n_steps_per_fit} and
// {n_episodes, n_episodes_per_fit} must be set, completely.
func controlsFrom(flat hyperparam.Flat) (Controls, error) {
	const op = "controls"

	ints := make(map[string]int, len(controlKeys))
	for _, key := range controlKeys {
		leaf, ok := flat[key]
		if !ok || leaf.IsUnset() {
			continue
		}
		v, ok := leaf.Int()
		if !ok {
			return Controls{}, configurationErrorf(op, "%v must be an "+
				"integer, got %v", key, leaf.Value())
		}
		if v < 1 {
			return Controls{}, configurationErrorf(op, "%v must be "+
				"positive, got %v", key, v)
		}
		ints[key] = v
	}

	c := Controls{
		Epochs:         ints[EpochsKey],
		Steps:          ints[StepsKey],
		StepsPerFit:    ints[StepsPerFitKey],
		Episodes:       ints[EpisodesKey],
		EpisodesPerFit: ints[EpisodesPerFitKey],
	}

	if c.Epochs < 1 {
		return Controls{}, configurationErrorf(op, "%v must be set",
			EpochsKey)
	}

	bySteps := c.Steps > 0 || c.StepsPerFit > 0
	byEpisodes := c.Episodes > 0 || c.EpisodesPerFit > 0
	switch {
	case bySteps && byEpisodes:
		return Controls{}, configurationError(op, fmt.Errorf("step "+
			"controls %v=%v, %v=%v and episode controls %v=%v, %v=%v are "+
			"mutually exclusive", StepsKey, flat.Value(StepsKey),
			StepsPerFitKey, flat.Value(StepsPerFitKey), EpisodesKey,
			flat.Value(EpisodesKey), EpisodesPerFitKey,
			flat.Value(EpisodesPerFitKey)))

	case !bySteps && !byEpisodes:
		return Controls{}, configurationErrorf(op, "one of %v or %v must "+
			"be set", StepsKey, EpisodesKey)

	case bySteps && (c.Steps == 0 || c.StepsPerFit == 0):
		return Controls{}, configurationErrorf(op, "%v and %v must both "+
			"be set", StepsKey, StepsPerFitKey)

	case byEpisodes && (c.Episodes == 0 || c.EpisodesPerFit == 0):
		return Controls{}, configurationErrorf(op, "%v and %v must both "+
			"be set", EpisodesKey, EpisodesPerFitKey)
	}
	return c, nil
}
