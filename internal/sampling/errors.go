package sampling

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSampler indicates a config type outside the dispatch set.
var ErrUnsupportedSampler = errors.New("sampling: unsupported sampler type")

// #region unsupported

// UnsupportedSamplerError is raised before any mutation when a config
// names an unknown sampler type. There is no silent fallback.
type UnsupportedSamplerError struct {
	Type string
}

func (e *UnsupportedSamplerError) Error() string {
	return fmt.Sprintf("sampling: unsupported sampler type %q", e.Type)
}

func (e *UnsupportedSamplerError) Unwrap() error { return ErrUnsupportedSampler }

// #endregion unsupported
