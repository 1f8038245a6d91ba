package numeric

import (
	"errors"
	"fmt"
	"math"
)

// #region sentinels

var (
	// ErrUnknownBackend indicates a backend id nothing is registered under.
	ErrUnknownBackend = errors.New("numeric: unknown backend")

	// ErrDivergence indicates NaN/Inf energy or state detected after a step.
	ErrDivergence = errors.New("numeric: divergence")
)

// #endregion sentinels

// #region divergence

// DivergenceError reports NaN/Inf detected after a sampling step. The
// trajectory is truncated at Step; partial progress is still returned to
// the caller alongside this error.
type DivergenceError struct {
	Step     int
	Quantity string // "energy" or "state"
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("numeric: divergence at step %d (%s is NaN/Inf)", e.Step, e.Quantity)
}

func (e *DivergenceError) Unwrap() error { return ErrDivergence }

// #endregion divergence

// #region finite

// Finite reports whether x is neither NaN nor infinite.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// #endregion finite
