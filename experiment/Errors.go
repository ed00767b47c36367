package experiment

import (
	"errors"
	"fmt"

	"github.com/samuelfneumann/autolearn/generator"
)

var (
	// ErrConfiguration indicates hyperparameters, an environment, or a
	// call order which cannot be used, detected before a run starts
	ErrConfiguration = generator.ErrConfiguration

	// ErrConstruction indicates that an agent could not be constructed
	ErrConstruction = generator.ErrConstruction

	// ErrTraining indicates that the agent failed to learn during a run
	ErrTraining = errors.New("training error")

	// ErrEvaluation indicates that a policy snapshot could not be
	// evaluated during a run
	ErrEvaluation = errors.New("evaluation error")

	// ErrTelemetry indicates that a run could not be reported. It never
	// ends a run.
	ErrTelemetry = errors.New("telemetry error")
)

// Error is an error of some Kind which occurred during operation Op
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns both the Kind and the underlying error so that
// errors.Is matches either
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(op string, kind, err error) error {
	// Errors which already carry a kind keep it
	if errors.Is(err, ErrConfiguration) || errors.Is(err, ErrConstruction) {
		return fmt.Errorf("%v: %w", op, err)
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

func configurationErrorf(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrConfiguration, Err: fmt.Errorf(format,
		args...)}
}
