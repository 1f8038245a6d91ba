// Package diffusion implements the forward-corruption / reverse-denoising
// engine: noise schedules (linear, cosine, boltzmann), forward diffusion,
// and the DDPM, DDIM, and energy-guided reverse samplers. The denoising
// direction is an injectable strategy; the default steers with the
// prior's energy gradient as a score proxy.
package diffusion

import (
	"github.com/veridyne/twinsampler/internal/state"
)

// #region energy-state

// EnergyState is the value a reverse chain carries between steps: the
// current field vectors, the discrete timestep t ∈ [0, T], and the
// schedule value at t. Created at trajectory start, advanced one timestep
// at a time, discarded once the trajectory is returned.
type EnergyState struct {
	Fields state.State
	T      int
	Coeffs Coeffs
}

// #endregion energy-state

// #region phase

// phase tracks a chain through its lifecycle. Transitions only ever move
// forward: initialized → stepping → terminal. A terminal chain cannot be
// re-stepped.
type phase int

const (
	phaseInitialized phase = iota
	phaseStepping
	phaseTerminal
)

// #endregion phase
