package relief

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the core unwraps to exactly one of these.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrDegenerateInput   = errors.New("degenerate input")
	ErrGeometryInvariant = errors.New("geometry invariant violated")
)

// StageError reports a failure in one conversion stage with enough context
// (stage name, offending values) to diagnose it without re-running.
type StageError struct {
	// Stage names the component that failed, e.g. "heightfield" or "mesh".
	Stage string

	// Kind is one of ErrConfiguration, ErrDegenerateInput, ErrGeometryInvariant.
	Kind error

	// Detail describes the offending dimensions or values.
	Detail string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Stage, e.Kind, e.Detail)
}

// Unwrap returns the error kind so errors.Is works against the sentinels.
func (e *StageError) Unwrap() error {
	return e.Kind
}

// ConfigError returns a StageError of kind ErrConfiguration.
func ConfigError(stage, format string, args ...interface{}) error {
	return &StageError{Stage: stage, Kind: ErrConfiguration, Detail: fmt.Sprintf(format, args...)}
}

// DegenerateError returns a StageError of kind ErrDegenerateInput.
func DegenerateError(stage, format string, args ...interface{}) error {
	return &StageError{Stage: stage, Kind: ErrDegenerateInput, Detail: fmt.Sprintf(format, args...)}
}

// InvariantError returns a StageError of kind ErrGeometryInvariant.
func InvariantError(stage, format string, args ...interface{}) error {
	return &StageError{Stage: stage, Kind: ErrGeometryInvariant, Detail: fmt.Sprintf(format, args...)}
}
