// Package gradient supplies the finite-difference fallback estimator and
// the resolver that decides, per prior, whether the analytic or the
// estimated gradient path is taken. The path actually used is reported
// back so trajectories can expose it in their metadata.
package gradient

import (
	"fmt"

	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
)

// DefaultEpsilon is the forward-difference perturbation step.
const DefaultEpsilon = 1e-4

// #region finite-difference

// FiniteDifference estimates a gradient by perturbing each scalar
// component and recomputing the energy: O(dim) energy evaluations per
// call. Acceptable for low-dimensional process states; high-dimensional
// priors must supply analytic gradients instead.
type FiniteDifference struct {
	Epsilon float64 // 0 means DefaultEpsilon
}

// Gradient forward-differences the prior's energy over every component of
// every required field.
func (fd FiniteDifference) Gradient(p prior.EnergyPrior, s state.State) (prior.Gradient, error) {
	eps := fd.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	base, err := p.Energy(s)
	if err != nil {
		return nil, fmt.Errorf("gradient: base energy: %w", err)
	}

	// Perturb a private copy in place, one component at a time.
	work := s.Clone()
	g := make(prior.Gradient, len(s))
	for _, field := range s.Fields() {
		vec := work[field]
		gv := make([]float64, len(vec))
		for i := range vec {
			orig := vec[i]
			vec[i] = orig + eps
			perturbed, err := p.Energy(work)
			vec[i] = orig
			if err != nil {
				return nil, fmt.Errorf("gradient: energy at %s[%d]: %w", field, i, err)
			}
			gv[i] = (perturbed - base) / eps
		}
		g[field] = gv
	}
	return g, nil
}

// #endregion finite-difference
