// Package config implements the YAML configuration of training runs
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment/envconfig"
	"github.com/samuelfneumann/autolearn/experiment"
	"github.com/samuelfneumann/autolearn/experiment/checkpointer"
	"github.com/samuelfneumann/autolearn/experiment/tracker"
	"github.com/samuelfneumann/autolearn/generator"
)

// Environment variables read by ApplyEnv
const (
	APIURLEnv = "AUTORL_API_URL"
	RunIDEnv  = "RUN_ID"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	err := validate.RegisterValidation("variant", func(fl validator.FieldLevel) bool {
		return generator.Variant(fl.Field().String()).Valid() == nil
	})
	if err != nil {
		panic(fmt.Sprintf("config: register variant validation: %v", err))
	}
	err = validate.RegisterValidation("layout", func(fl validator.FieldLevel) bool {
		l := fl.Field().String()
		return l == "" || approximator.Layout(l).Valid() == nil
	})
	if err != nil {
		panic(fmt.Sprintf("config: register layout validation: %v", err))
	}
}

// Run configures a single training run
type Run struct {
	Variant     generator.Variant   `yaml:"variant" validate:"required,variant"`
	Regressor   approximator.Layout `yaml:"regressor,omitempty" validate:"layout"`
	Seed        uint64              `yaml:"seed"`
	RunID       string              `yaml:"run_id,omitempty"`
	Environment envconfig.Config    `yaml:"environment"`

	// DeterministicOutput collapses evaluated policies to their greedy
	// actions. Defaults to true.
	DeterministicOutput *bool `yaml:"deterministic_output,omitempty"`

	// Hyperparameters override the default values of the Variant's
	// schema, keyed by hyperparameter name
	Hyperparameters map[string]any `yaml:"hyperparameters,omitempty"`

	Evaluation Evaluation `yaml:"evaluation"`
	Store      Store      `yaml:"store"`
	Tracker    Tracker    `yaml:"tracker"`
}

// Evaluation configures the metric used to score policies
type Evaluation struct {
	Episodes int `yaml:"episodes" validate:"gte=1"`
	Workers  int `yaml:"workers" validate:"gte=1"`
}

// Store configures where the state of a run is saved. An empty Kind
// disables saving.
type Store struct {
	Kind checkpointer.Kind `yaml:"kind,omitempty" validate:"omitempty,oneof=memory sqlite"`
	Path string            `yaml:"path,omitempty" validate:"required_if=Kind sqlite"`

	// Every saves a checkpoint every Every epochs. 0 saves only the
	// final state.
	Every int `yaml:"every,omitempty" validate:"gte=0"`
}

// Tracker configures the tracking service runs are reported to
type Tracker struct {
	Disabled bool          `yaml:"disabled,omitempty"`
	URL      string        `yaml:"url,omitempty" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// Default returns the default Run configuration, training a value-based
// agent on Cartpole
func Default() Run {
	return Run{
		Variant: generator.ValueBased,
		Environment: envconfig.NewConfig(envconfig.Cartpole, envconfig.Balance,
			false, 500, 0.99),
		Evaluation: Evaluation{
			Episodes: experiment.DefaultEvalEpisodes,
			Workers:  experiment.DefaultEvalWorkers,
		},
		Tracker: Tracker{URL: tracker.DefaultURL, Timeout: 10 * time.Second},
	}
}

// Load reads a Run configuration from a YAML file. Fields missing from
// the file keep their default values; environment variables override
// the tracking settings of the file.
func Load(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("load: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return Run{}, fmt.Errorf("load: %v: %w", path, err)
	}
	return r, nil
}

// Parse parses and validates a YAML Run configuration
func Parse(data []byte) (Run, error) {
	r := Default()
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Run{}, fmt.Errorf("parse: %w", err)
	}
	r.ApplyEnv(os.LookupEnv)
	if err := r.Validate(); err != nil {
		return Run{}, fmt.Errorf("parse: %w", err)
	}
	return r, nil
}

// ApplyEnv overrides the tracking URL and run id with the values of
// the AUTORL_API_URL and RUN_ID environment variables, if set
func (r *Run) ApplyEnv(lookup func(string) (string, bool)) {
	if url, ok := lookup(APIURLEnv); ok && url != "" {
		r.Tracker.URL = url
	}
	if id, ok := lookup(RunIDEnv); ok && id != "" {
		r.RunID = id
	}
}

// Validate returns an error if the configuration is invalid
func (r Run) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// Deterministic returns whether evaluated policies are collapsed to
// their greedy actions
func (r Run) Deterministic() bool {
	return r.DeterministicOutput == nil || *r.DeterministicOutput
}
