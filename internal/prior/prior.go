// Package prior defines the energy-prior contract: a named, versioned,
// immutable capability that scores how physically consistent a candidate
// state is (lower energy = more plausible) and supplies the gradient of
// that score. Domain packages implement EnergyPrior independently and
// register deferred loaders with a Registry.
package prior

import (
	"fmt"

	"github.com/veridyne/twinsampler/internal/state"
)

// #region info

// Info is a prior's registration identity. It is fixed at construction
// and never changes afterwards.
type Info struct {
	Name           string            // domain name, e.g. "fusion"
	Version        int               // contract version, e.g. 1
	RequiredFields []string          // fields Validate demands before any numeric work
	Weight         float64           // energy scale factor; energies compare only after scaling
	Metadata       map[string]string // free-form provenance (units, model notes)
}

// Key returns the registry key, "<domain>_v<version>".
func (i Info) Key() string {
	return fmt.Sprintf("%s_v%d", i.Name, i.Version)
}

// #endregion info

// #region gradient

// Gradient holds one vector per field. The shape contract is strict: each
// vector must match the corresponding state field's length exactly.
type Gradient map[string][]float64

// #endregion gradient

// #region interface

// EnergyPrior is the pluggable domain capability. Energy and Gradient must
// be pure: same state in, same numbers out, no hidden mutation. Both may
// assume Validate has passed.
//
// Priors without an analytic gradient return ErrNoAnalyticGradient from
// Gradient; the gradient resolver then falls back to finite differences.
type EnergyPrior interface {
	Info() Info
	Validate(s state.State) error
	Energy(s state.State) (float64, error)
	Gradient(s state.State) (Gradient, error)
}

// #endregion interface

// #region validate-helper

// RequireFields checks that every required field is present, returning a
// MissingFieldError naming all absent fields at once. It is the common
// first line of every prior's Validate.
func RequireFields(info Info, s state.State) error {
	var missing []string
	for _, f := range info.RequiredFields {
		if !s.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldError{Prior: info.Key(), Fields: missing}
	}
	return nil
}

// CheckShapes verifies the gradient shape contract against the state it
// was computed for. A violation is a fatal contract bug in the prior, not
// a recoverable condition.
func CheckShapes(info Info, s state.State, g Gradient) error {
	for _, f := range info.RequiredFields {
		vec, ok := s[f]
		if !ok {
			return &MissingFieldError{Prior: info.Key(), Fields: []string{f}}
		}
		gv, ok := g[f]
		if !ok || len(gv) != len(vec) {
			got := -1
			if ok {
				got = len(gv)
			}
			return &ShapeMismatchError{Prior: info.Key(), Field: f, Want: len(vec), Got: got}
		}
	}
	return nil
}

// #endregion validate-helper
