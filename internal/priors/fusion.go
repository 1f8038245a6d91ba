// Package priors ships the built-in domain priors (fusion, grid, cnc,
// quadratic) and the yaml catalog that configures and registers them.
// The energy forms are deliberately simple consistency residuals — real
// domain equations arrive as external priors through the same registry.
package priors

import (
	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
)

// #region fusion

// Fusion scores a plasma state by how far the flow speed sits from the
// local Alfvén speed: E = Σᵢ (vᵢ² − k·Bᵢ²/ρᵢ)². A vanishing density sends
// the residual to ±Inf, which the samplers' divergence checks turn into a
// hard error instead of a NaN trail.
type Fusion struct {
	info     prior.Info
	coupling float64
}

// NewFusion builds the fusion_v1 prior. params recognizes "coupling"
// (default 1).
func NewFusion(weight float64, params map[string]float64) *Fusion {
	coupling := params["coupling"]
	if coupling == 0 {
		coupling = 1
	}
	return &Fusion{
		info: prior.Info{
			Name:           "fusion",
			Version:        1,
			RequiredFields: []string{"B", "rho", "v"},
			Weight:         weight,
			Metadata:       map[string]string{"model": "alfven_residual"},
		},
		coupling: coupling,
	}
}

func (f *Fusion) Info() prior.Info { return f.info }

// Validate requires B, rho, v present with matching lengths.
func (f *Fusion) Validate(s state.State) error {
	if err := prior.RequireFields(f.info, s); err != nil {
		return err
	}
	n := len(s["B"])
	for _, field := range []string{"rho", "v"} {
		if len(s[field]) != n {
			return &prior.ShapeMismatchError{Prior: f.info.Key(), Field: field, Want: n, Got: len(s[field])}
		}
	}
	return nil
}

func (f *Fusion) Energy(s state.State) (float64, error) {
	b, rho, v := s["B"], s["rho"], s["v"]
	var e float64
	for i := range b {
		r := v[i]*v[i] - f.coupling*b[i]*b[i]/rho[i]
		e += r * r
	}
	return e, nil
}

func (f *Fusion) Gradient(s state.State) (prior.Gradient, error) {
	b, rho, v := s["B"], s["rho"], s["v"]
	gb := make([]float64, len(b))
	grho := make([]float64, len(b))
	gv := make([]float64, len(b))
	for i := range b {
		r := v[i]*v[i] - f.coupling*b[i]*b[i]/rho[i]
		gv[i] = 4 * v[i] * r
		gb[i] = -4 * f.coupling * b[i] * r / rho[i]
		grho[i] = 2 * r * f.coupling * b[i] * b[i] / (rho[i] * rho[i])
	}
	return prior.Gradient{"B": gb, "rho": grho, "v": gv}, nil
}

// #endregion fusion
