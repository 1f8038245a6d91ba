package diffusion

import (
	"github.com/veridyne/twinsampler/internal/gradient"
	"github.com/veridyne/twinsampler/internal/prior"
)

// #region strategy

// DenoiseStrategy supplies the score estimate s(x_t) ≈ ∇ log p(x_t) that
// drives a reverse step. It is injectable so a learned score model can
// replace the default without touching the samplers; the default derives
// the score from the prior's energy gradient.
type DenoiseStrategy interface {
	Name() string
	Score(p prior.EnergyPrior, es EnergyState) (prior.Gradient, gradient.Source, error)
}

// #endregion strategy

// #region gradient-score

// GradientScore is the energy-gradient score proxy: s = −w·∇E, where w is
// the prior's weight. Lower energy means more plausible, so the negative
// gradient points toward plausibility.
type GradientScore struct {
	Grads gradient.Resolver
}

func (GradientScore) Name() string { return "energy_gradient" }

// Score computes −w·∇E at the chain's current fields.
func (g GradientScore) Score(p prior.EnergyPrior, es EnergyState) (prior.Gradient, gradient.Source, error) {
	grad, src, err := g.Grads.Gradient(p, es.Fields)
	if err != nil {
		return nil, src, err
	}
	w := p.Info().Weight
	if w == 0 {
		w = 1
	}
	score := make(prior.Gradient, len(grad))
	for field, gv := range grad {
		sv := make([]float64, len(gv))
		for i, v := range gv {
			sv[i] = -w * v
		}
		score[field] = sv
	}
	return score, src, nil
}

// #endregion gradient-score
