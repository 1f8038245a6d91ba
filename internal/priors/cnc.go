package priors

import (
	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
)

// #region cnc

// CNC scores a machining state by toolpath roughness plus feed-rate
// overshoot: E = Σᵢ (posᵢ₊₁ − posᵢ)² + Σᵢ max(0, feedᵢ − limit)².
// It supplies no analytic gradient, exercising the finite-difference
// fallback path.
type CNC struct {
	info      prior.Info
	feedLimit float64
}

// NewCNC builds the cnc_v1 prior. params recognizes "feed_limit"
// (default 10).
func NewCNC(weight float64, params map[string]float64) *CNC {
	limit := params["feed_limit"]
	if limit == 0 {
		limit = 10
	}
	return &CNC{
		info: prior.Info{
			Name:           "cnc",
			Version:        1,
			RequiredFields: []string{"feed", "position"},
			Weight:         weight,
			Metadata:       map[string]string{"model": "path_smoothness"},
		},
		feedLimit: limit,
	}
}

func (c *CNC) Info() prior.Info { return c.info }

// Validate requires feed to align with the toolpath samples.
func (c *CNC) Validate(s state.State) error {
	if err := prior.RequireFields(c.info, s); err != nil {
		return err
	}
	if len(s["feed"]) != len(s["position"]) {
		return &prior.ShapeMismatchError{
			Prior: c.info.Key(), Field: "feed",
			Want: len(s["position"]), Got: len(s["feed"]),
		}
	}
	return nil
}

func (c *CNC) Energy(s state.State) (float64, error) {
	pos, feed := s["position"], s["feed"]
	var e float64
	for i := 0; i+1 < len(pos); i++ {
		d := pos[i+1] - pos[i]
		e += d * d
	}
	for _, f := range feed {
		if over := f - c.feedLimit; over > 0 {
			e += over * over
		}
	}
	return e, nil
}

// Gradient defers to the finite-difference estimator.
func (c *CNC) Gradient(s state.State) (prior.Gradient, error) {
	return nil, prior.ErrNoAnalyticGradient
}

// #endregion cnc
