// Package trajectory defines the ordered record of states and energies
// produced by one sampling call, plus the SQLite archive the cmd tools use
// to persist finished runs. The sampling core itself only ever touches the
// in-memory Trajectory value.
package trajectory

import (
	"errors"

	"github.com/google/uuid"
	"github.com/veridyne/twinsampler/internal/state"
)

// ErrSealed indicates an append to a trajectory that was already returned
// to its caller. Trajectories are never restartable.
var ErrSealed = errors.New("trajectory: sealed")

// #region point

// Point is one recorded step: the step ordinal, the weight-scaled energy
// after the step, and a private copy of the state.
type Point struct {
	Step   int         `json:"step"`
	Energy float64     `json:"energy"`
	State  state.State `json:"state"`
}

// #endregion point

// #region trajectory

// Trajectory is append-only while a sampler is generating and immutable
// once sealed and returned. Each sampling call owns exactly one.
type Trajectory struct {
	RunID    string            `json:"run_id"`
	Prior    string            `json:"prior"`
	Sampler  string            `json:"sampler"`
	Metadata map[string]string `json:"metadata"`
	Points   []Point           `json:"points"`

	sealed bool
}

// New creates an empty trajectory for one run of sampler against priorKey.
func New(priorKey, sampler string) *Trajectory {
	return &Trajectory{
		RunID:    uuid.New().String(),
		Prior:    priorKey,
		Sampler:  sampler,
		Metadata: make(map[string]string),
	}
}

// Append records a step. The state is cloned so later sampler mutations
// cannot reach already-recorded points.
func (t *Trajectory) Append(step int, energy float64, s state.State) error {
	if t.sealed {
		return ErrSealed
	}
	t.Points = append(t.Points, Point{Step: step, Energy: energy, State: s.Clone()})
	return nil
}

// SetMeta records a metadata key (gradient source, backend, scheduler...).
// Metadata is run annotation, not trajectory content, so the service may
// still stamp it after sealing; the point sequence alone is frozen.
func (t *Trajectory) SetMeta(key, value string) {
	t.Metadata[key] = value
}

// Seal freezes the trajectory. Samplers seal before returning, on success
// and on truncation alike.
func (t *Trajectory) Seal() { t.sealed = true }

// Len returns the number of recorded points.
func (t *Trajectory) Len() int { return len(t.Points) }

// #endregion trajectory

// #region projections

// FinalState returns the state of the last recorded point, or nil for an
// empty trajectory.
func (t *Trajectory) FinalState() state.State {
	if len(t.Points) == 0 {
		return nil
	}
	return t.Points[len(t.Points)-1].State
}

// EnergyTrace returns the recorded energies in step order.
func (t *Trajectory) EnergyTrace() []float64 {
	trace := make([]float64, len(t.Points))
	for i, p := range t.Points {
		trace[i] = p.Energy
	}
	return trace
}

// FinalEnergy returns the last recorded energy; ok is false for an empty
// trajectory.
func (t *Trajectory) FinalEnergy() (float64, bool) {
	if len(t.Points) == 0 {
		return 0, false
	}
	return t.Points[len(t.Points)-1].Energy, true
}

// #endregion projections
