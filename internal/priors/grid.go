package priors

import (
	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
)

// #region grid

// Grid scores a balancing-area state by injection/demand imbalance plus
// frequency deviation from nominal:
// E = Σᵢ (injᵢ − demᵢ)² + wf·Σⱼ (freqⱼ − f₀)².
type Grid struct {
	info     prior.Info
	nominal  float64
	freqCoef float64
}

// NewGrid builds the grid_v1 prior. params recognizes "nominal_frequency"
// (default 50) and "frequency_weight" (default 1).
func NewGrid(weight float64, params map[string]float64) *Grid {
	nominal := params["nominal_frequency"]
	if nominal == 0 {
		nominal = 50
	}
	freqCoef := params["frequency_weight"]
	if freqCoef == 0 {
		freqCoef = 1
	}
	return &Grid{
		info: prior.Info{
			Name:           "grid",
			Version:        1,
			RequiredFields: []string{"demand", "frequency", "injection"},
			Weight:         weight,
			Metadata:       map[string]string{"model": "balance_residual"},
		},
		nominal:  nominal,
		freqCoef: freqCoef,
	}
}

func (g *Grid) Info() prior.Info { return g.info }

// Validate requires injection and demand to be node-aligned; frequency is
// an independent per-area vector.
func (g *Grid) Validate(s state.State) error {
	if err := prior.RequireFields(g.info, s); err != nil {
		return err
	}
	if len(s["demand"]) != len(s["injection"]) {
		return &prior.ShapeMismatchError{
			Prior: g.info.Key(), Field: "demand",
			Want: len(s["injection"]), Got: len(s["demand"]),
		}
	}
	return nil
}

func (g *Grid) Energy(s state.State) (float64, error) {
	inj, dem, freq := s["injection"], s["demand"], s["frequency"]
	var e float64
	for i := range inj {
		d := inj[i] - dem[i]
		e += d * d
	}
	for _, f := range freq {
		d := f - g.nominal
		e += g.freqCoef * d * d
	}
	return e, nil
}

func (g *Grid) Gradient(s state.State) (prior.Gradient, error) {
	inj, dem, freq := s["injection"], s["demand"], s["frequency"]
	ginj := make([]float64, len(inj))
	gdem := make([]float64, len(dem))
	gfreq := make([]float64, len(freq))
	for i := range inj {
		d := 2 * (inj[i] - dem[i])
		ginj[i] = d
		gdem[i] = -d
	}
	for i, f := range freq {
		gfreq[i] = 2 * g.freqCoef * (f - g.nominal)
	}
	return prior.Gradient{"demand": gdem, "frequency": gfreq, "injection": ginj}, nil
}

// #endregion grid
