package priors

import (
	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
)

// #region quadratic

// Quadratic is the isotropic bowl E = Σᵢ xᵢ² over a single state_vector
// field — the reference landscape used by tests, demos, and smoke runs.
type Quadratic struct {
	info prior.Info
}

// NewQuadratic builds the quadratic_v1 prior.
func NewQuadratic(weight float64, _ map[string]float64) *Quadratic {
	return &Quadratic{
		info: prior.Info{
			Name:           "quadratic",
			Version:        1,
			RequiredFields: []string{"state_vector"},
			Weight:         weight,
			Metadata:       map[string]string{"model": "isotropic_bowl"},
		},
	}
}

func (q *Quadratic) Info() prior.Info { return q.info }

func (q *Quadratic) Validate(s state.State) error {
	return prior.RequireFields(q.info, s)
}

func (q *Quadratic) Energy(s state.State) (float64, error) {
	var e float64
	for _, x := range s["state_vector"] {
		e += x * x
	}
	return e, nil
}

func (q *Quadratic) Gradient(s state.State) (prior.Gradient, error) {
	vec := s["state_vector"]
	g := make([]float64, len(vec))
	for i, x := range vec {
		g[i] = 2 * x
	}
	return prior.Gradient{"state_vector": g}, nil
}

// #endregion quadratic
