package priors

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/veridyne/twinsampler/internal/prior"
)

// #region catalog-types

// Entry configures one built-in prior. A nil Enabled means enabled;
// weight 0 means 1.
type Entry struct {
	Enabled *bool              `yaml:"enabled"`
	Weight  float64            `yaml:"weight"`
	Params  map[string]float64 `yaml:"params"`
}

// Catalog maps registry keys ("fusion_v1", ...) to their configuration.
type Catalog map[string]Entry

func (e Entry) enabled() bool { return e.Enabled == nil || *e.Enabled }

func (e Entry) weight() float64 {
	if e.Weight == 0 {
		return 1
	}
	return e.Weight
}

// #endregion catalog-types

// #region load

// DefaultCatalog enables every built-in prior with weight 1 and default
// params.
func DefaultCatalog() Catalog {
	cat := make(Catalog, len(builtins))
	for key := range builtins {
		cat[key] = Entry{}
	}
	return cat
}

// LoadCatalog reads a yaml catalog file. Keys must name built-in priors.
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for key := range cat {
		if _, ok := builtins[key]; !ok {
			return nil, fmt.Errorf("catalog: unknown prior %q", key)
		}
	}
	return cat, nil
}

// #endregion load

// #region register

// builtins maps registry keys to constructors.
var builtins = map[string]func(weight float64, params map[string]float64) prior.EnergyPrior{
	"cnc_v1":       func(w float64, p map[string]float64) prior.EnergyPrior { return NewCNC(w, p) },
	"fusion_v1":    func(w float64, p map[string]float64) prior.EnergyPrior { return NewFusion(w, p) },
	"grid_v1":      func(w float64, p map[string]float64) prior.EnergyPrior { return NewGrid(w, p) },
	"quadratic_v1": func(w float64, p map[string]float64) prior.EnergyPrior { return NewQuadratic(w, p) },
}

// RegisterBuiltins installs deferred loaders for every enabled catalog
// entry. Construction happens on first Get, per the registry contract.
func RegisterBuiltins(reg *prior.Registry, cat Catalog) error {
	for key, entry := range cat {
		if !entry.enabled() {
			continue
		}
		build, ok := builtins[key]
		if !ok {
			return fmt.Errorf("catalog: unknown prior %q", key)
		}
		weight := entry.weight()
		params := entry.Params
		if err := reg.Register(key, func() (prior.EnergyPrior, error) {
			return build(weight, params), nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// #endregion register
