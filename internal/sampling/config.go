package sampling

import (
	"fmt"

	"github.com/veridyne/twinsampler/internal/diffusion"
	"github.com/veridyne/twinsampler/internal/numeric"
)

// #region type

// Type selects the sampling algorithm.
type Type string

const (
	TypeLangevin     Type = "langevin"
	TypeDDPM         Type = "ddpm"
	TypeDDIM         Type = "ddim"
	TypeEnergyGuided Type = "energy_guided"
)

func (t Type) diffusion() bool {
	return t == TypeDDPM || t == TypeDDIM || t == TypeEnergyGuided
}

// #endregion type

// #region config

// Config is the per-call sampling configuration. It is validated once at
// entry and never mutated mid-run.
type Config struct {
	Type     Type    `json:"type" yaml:"type"`
	Steps    int     `json:"steps" yaml:"steps"`
	LR       float64 `json:"lr,omitempty" yaml:"lr,omitempty"`                         // langevin step size
	Noise    float64 `json:"noise,omitempty" yaml:"noise,omitempty"`                   // langevin / ddpm noise scale
	Guidance float64 `json:"guidance_scale,omitempty" yaml:"guidance_scale,omitempty"` // energy_guided blend, [0,1]
	Schedule string  `json:"scheduler,omitempty" yaml:"scheduler,omitempty"`           // diffusion: linear|cosine|boltzmann
	Backend  string  `json:"backend,omitempty" yaml:"backend,omitempty"`               // numeric backend id; empty = native
	Seed     *int64  `json:"seed,omitempty" yaml:"seed,omitempty"`                     // fix for ddim bit-reproducibility
}

// Validate fails fast, before any prior resolution or numeric work.
func (c Config) Validate() error {
	switch c.Type {
	case TypeLangevin, TypeDDPM, TypeDDIM, TypeEnergyGuided:
	default:
		return &UnsupportedSamplerError{Type: string(c.Type)}
	}
	if c.Steps <= 0 {
		return fmt.Errorf("sampling: steps must be > 0, got %d", c.Steps)
	}
	if c.Type == TypeLangevin && c.LR <= 0 {
		return fmt.Errorf("sampling: langevin lr must be > 0, got %g", c.LR)
	}
	if c.Noise < 0 {
		return fmt.Errorf("sampling: noise must be >= 0, got %g", c.Noise)
	}
	if c.Type == TypeEnergyGuided && (c.Guidance < 0 || c.Guidance > 1) {
		return fmt.Errorf("sampling: guidance_scale must be in [0,1], got %g", c.Guidance)
	}
	if c.Type.diffusion() {
		if _, err := diffusion.NewSchedule(c.Schedule); err != nil {
			return err
		}
	}
	if _, err := numeric.ForName(c.Backend); err != nil {
		return err
	}
	return nil
}

// #endregion config
