package prior

import (
	"fmt"
	"sort"
	"sync"
)

// #region loader

// Loader builds a prior on first use. Registration stores the loader
// only; construction is deferred until the first Get.
type Loader func() (EnergyPrior, error)

// #endregion loader

// #region registry

// Registry maps "<domain>_v<n>" keys to lazily-built prior singletons.
// It is an explicitly constructed value injected into the sampling
// service, not a package-level global, so tests can run isolated
// registries side by side. The read path is safe for concurrent use;
// a loaded prior is shared by all callers and must be immutable.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]Loader
	cache   map[string]EnergyPrior
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[string]Loader),
		cache:   make(map[string]EnergyPrior),
	}
}

// #endregion registry

// #region register

// Register stores a deferred factory under key. Registering the same key
// twice is an error; priors are immutable after registration.
func (r *Registry) Register(key string, load Loader) error {
	if load == nil {
		return fmt.Errorf("prior: nil loader for %q", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loaders[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePrior, key)
	}
	r.loaders[key] = load
	return nil
}

// #endregion register

// #region get

// Get resolves a prior, building and caching the singleton on first use.
// Unregistered keys fail with ErrPriorNotFound. The built prior's own
// identity must match the key it was registered under.
func (r *Registry) Get(key string) (EnergyPrior, error) {
	r.mu.RLock()
	if p, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	load, ok := r.loaders[key]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPriorNotFound, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have raced us through the load.
	if p, ok := r.cache[key]; ok {
		return p, nil
	}
	p, err := load()
	if err != nil {
		return nil, fmt.Errorf("prior: load %s: %w", key, err)
	}
	if got := p.Info().Key(); got != key {
		return nil, fmt.Errorf("prior: loader for %s built prior with identity %s", key, got)
	}
	r.cache[key] = p
	return p, nil
}

// #endregion get

// #region keys

// Keys returns all registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.loaders))
	for k := range r.loaders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// #endregion keys
