package gradient

import (
	"errors"

	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
)

// #region source

// Source identifies which gradient path served a call.
type Source string

const (
	SourceAnalytic   Source = "analytic"
	SourceFiniteDiff Source = "finite_difference"
)

// #endregion source

// #region resolver

// Resolver keeps both gradient paths behind one call: the prior's analytic
// gradient when it has one, finite differences when it answers
// ErrNoAnalyticGradient. Every result is shape-checked against the state
// before it is handed to a sampler.
type Resolver struct {
	FD FiniteDifference
}

// Gradient computes the gradient of p at s and reports the path used.
func (r Resolver) Gradient(p prior.EnergyPrior, s state.State) (prior.Gradient, Source, error) {
	src := SourceAnalytic
	g, err := p.Gradient(s)
	if errors.Is(err, prior.ErrNoAnalyticGradient) {
		src = SourceFiniteDiff
		g, err = r.FD.Gradient(p, s)
	}
	if err != nil {
		return nil, src, err
	}
	if err := prior.CheckShapes(p.Info(), s, g); err != nil {
		return nil, src, err
	}
	return g, src, nil
}

// #endregion resolver
