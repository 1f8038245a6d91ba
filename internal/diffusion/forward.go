package diffusion

import (
	"math"
	"math/rand"

	"github.com/veridyne/twinsampler/internal/numeric"
	"github.com/veridyne/twinsampler/internal/state"
)

// #region forward

// Forward corrupts clean states toward noise according to a schedule:
// x_t = √ᾱ_t·x₀ + σ_t·ε. Reverse chains use it once, to build the
// corrupted seed they then denoise.
type Forward struct {
	Schedule Schedule
	Backend  numeric.Backend
}

// Corrupt returns the noised copy of s at timestep t. Field iteration is
// in sorted order so a fixed rng seed yields a bit-identical result.
func (f Forward) Corrupt(s state.State, t, total int, rng *rand.Rand) state.State {
	c := f.Schedule.At(t, total)
	sqrtAlpha := math.Sqrt(c.Alpha)

	out := s.Clone()
	for _, field := range out.Fields() {
		vec := out[field]
		noise := f.Backend.Normal(rng, len(vec))
		for i := range vec {
			vec[i] = sqrtAlpha*vec[i] + c.Sigma*noise[i]
		}
	}
	return out
}

// #endregion forward
