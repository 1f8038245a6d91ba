// Package config loads the cmd tools' settings from the environment.
// The sampling core takes everything per call and reads no environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// #region env

// Env is the process-level configuration shared by the cmd tools.
type Env struct {
	// ArchivePath is the SQLite trajectory archive location.
	ArchivePath string `env:"TWINSAMPLER_ARCHIVE" envDefault:"twinsampler.db"`
	// CatalogPath optionally points at a yaml prior catalog; empty means
	// the built-in defaults.
	CatalogPath string `env:"TWINSAMPLER_CATALOG"`
	// Backend is the default numeric backend id for runs that don't set one.
	Backend string `env:"TWINSAMPLER_BACKEND" envDefault:"native"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// #endregion env
