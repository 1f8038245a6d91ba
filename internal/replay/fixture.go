// Package replay re-runs recorded sampling scenarios through the service
// and checks the outcome against stored expectations — the regression
// harness for determinism and energy-trace behavior.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/veridyne/twinsampler/internal/sampling"
	"github.com/veridyne/twinsampler/internal/state"
)

// #region fixture-types

// Fixture is the top-level JSON structure for one replay scenario.
type Fixture struct {
	Description  string               `json:"description"`
	Prior        string               `json:"prior"`
	Config       sampling.Config      `json:"config"`
	InitialState map[string][]float64 `json:"initial_state"`
	Expect       Expectations         `json:"expect"`
}

// Expectations describe what the replayed run must produce. Zero-valued
// checks are skipped.
type Expectations struct {
	// Points is the expected number of recorded trajectory points.
	Points int `json:"points,omitempty"`
	// FinalEnergyMax caps the final weighted energy.
	FinalEnergyMax *float64 `json:"final_energy_max,omitempty"`
	// EnergyTrace pins the full trace. Only meaningful for seeded
	// deterministic runs (ddim); compared within Tolerance per step,
	// exactly when Tolerance is 0.
	EnergyTrace []float64 `json:"energy_trace,omitempty"`
	Tolerance   float64   `json:"tolerance,omitempty"`
	// WantError expects the run to fail with an error containing this text.
	WantError string `json:"want_error,omitempty"`
}

// #endregion fixture-types

// #region io

// LoadFixture reads and decodes a fixture file.
func LoadFixture(path string) (Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if f.Prior == "" {
		return Fixture{}, fmt.Errorf("fixture: missing prior")
	}
	return f, nil
}

// WriteFixture encodes a fixture with stable indentation.
func WriteFixture(path string, f Fixture) error {
	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

// State converts the fixture's initial state into the engine value type.
func (f Fixture) State() state.State {
	s := make(state.State, len(f.InitialState))
	for field, vec := range f.InitialState {
		cv := make([]float64, len(vec))
		copy(cv, vec)
		s[field] = cv
	}
	return s
}

// #endregion io
