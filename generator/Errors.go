package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates hyperparameters or an environment which
	// cannot be used together, detected before any agent is constructed
	ErrConfiguration = errors.New("configuration error")

	// ErrConstruction indicates that an agent could not be constructed
	// from fully resolved hyperparameters
	ErrConstruction = errors.New("construction error")
)

// Error is an error of some Kind, either ErrConfiguration or
// ErrConstruction, which occurred during operation Op
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

func configurationError(op string, err error) error {
	return &Error{Op: op, Kind: ErrConfiguration, Err: err}
}

func configurationErrorf(op, format string, args ...any) error {
	return configurationError(op, fmt.Errorf(format, args...))
}

func constructionError(op string, err error) error {
	return &Error{Op: op, Kind: ErrConstruction, Err: err}
}

// IsConfiguration returns whether err is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsConstruction returns whether err is a construction error
func IsConstruction(err error) bool {
	return errors.Is(err, ErrConstruction)
}
