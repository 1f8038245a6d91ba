package prior

import (
	"errors"
	"fmt"
	"strings"
)

// #region sentinels

var (
	// ErrPriorNotFound indicates a Get for a key no loader was registered under.
	ErrPriorNotFound = errors.New("prior: not registered")

	// ErrDuplicatePrior indicates a second Register under an existing key.
	ErrDuplicatePrior = errors.New("prior: key already registered")

	// ErrNoAnalyticGradient is returned by priors that only supply an energy
	// function; the gradient resolver falls back to finite differences.
	ErrNoAnalyticGradient = errors.New("prior: no analytic gradient")
)

// #endregion sentinels

// #region missing-field

// MissingFieldError reports required fields absent from a state. It is
// raised before any numeric work happens.
type MissingFieldError struct {
	Prior  string
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("prior %s: state missing required field(s): %s",
		e.Prior, strings.Join(e.Fields, ", "))
}

// #endregion missing-field

// #region shape-mismatch

// ShapeMismatchError reports a gradient or update whose shape does not
// match the state field it applies to. Fatal: the trajectory aborts at the
// offending step. Got is -1 when the field is absent from the gradient.
type ShapeMismatchError struct {
	Prior string
	Field string
	Want  int
	Got   int
}

func (e *ShapeMismatchError) Error() string {
	if e.Got < 0 {
		return fmt.Sprintf("prior %s: gradient missing field %q (want len %d)", e.Prior, e.Field, e.Want)
	}
	return fmt.Sprintf("prior %s: gradient shape mismatch on %q: want len %d, got %d",
		e.Prior, e.Field, e.Want, e.Got)
}

// #endregion shape-mismatch
