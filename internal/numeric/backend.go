// Package numeric provides the pluggable arithmetic backend used by the
// samplers (vector ops plus Gaussian draws) and the divergence checks that
// guard every step. Backend selection is explicit: an id nobody registered
// is a configuration error, never a silent substitution.
package numeric

import (
	"fmt"
	"math"
	"math/rand"
)

// #region backend

// Backend is the abstract numeric-array capability. The same sampler code
// runs unmodified across backends; "native" is the portable pure-Go
// implementation.
type Backend interface {
	Name() string
	Zeros(n int) []float64
	Clone(v []float64) []float64
	// AddScaled performs dst[i] += a*src[i]; lengths must match.
	AddScaled(dst []float64, a float64, src []float64) error
	Scale(v []float64, a float64)
	Norm(v []float64) float64
	// Normal draws n independent N(0,1) samples from r.
	Normal(r *rand.Rand, n int) []float64
}

// DefaultBackend is used when a config leaves the backend id empty.
const DefaultBackend = "native"

// ForName resolves a backend id. Empty means DefaultBackend; anything
// else unknown fails with ErrUnknownBackend so a misconfigured caller
// hears about it instead of silently running on a default.
func ForName(id string) (Backend, error) {
	switch id {
	case "", DefaultBackend:
		return nativeBackend{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, id)
	}
}

// #endregion backend

// #region native

type nativeBackend struct{}

func (nativeBackend) Name() string { return DefaultBackend }

func (nativeBackend) Zeros(n int) []float64 { return make([]float64, n) }

func (nativeBackend) Clone(v []float64) []float64 {
	c := make([]float64, len(v))
	copy(c, v)
	return c
}

func (nativeBackend) AddScaled(dst []float64, a float64, src []float64) error {
	if len(dst) != len(src) {
		return fmt.Errorf("numeric: add-scaled length mismatch: dst %d, src %d", len(dst), len(src))
	}
	for i := range dst {
		dst[i] += a * src[i]
	}
	return nil
}

func (nativeBackend) Scale(v []float64, a float64) {
	for i := range v {
		v[i] *= a
	}
}

func (nativeBackend) Norm(v []float64) float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	return math.Sqrt(sumSq)
}

func (nativeBackend) Normal(r *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = r.NormFloat64()
	}
	return out
}

// #endregion native
