package prior

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/veridyne/twinsampler/internal/state"
)

// stubPrior is a minimal prior for registry tests.
type stubPrior struct {
	info Info
}

func (p *stubPrior) Info() Info                   { return p.info }
func (p *stubPrior) Validate(s state.State) error { return RequireFields(p.info, s) }

func (p *stubPrior) Energy(s state.State) (float64, error) { return 0, nil }

func (p *stubPrior) Gradient(s state.State) (Gradient, error) {
	return nil, ErrNoAnalyticGradient
}

func newStub(name string) *stubPrior {
	return &stubPrior{info: Info{Name: name, Version: 1, RequiredFields: []string{"state_vector"}, Weight: 1}}
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("demo_v1", func() (EnergyPrior, error) { return newStub("demo"), nil }); err != nil {
		t.Fatalf("register: %v", err)
	}

	p, err := reg.Get("demo_v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Info().Key() != "demo_v1" {
		t.Fatalf("expected identity demo_v1, got %s", p.Info().Key())
	}

	// Singleton: second Get returns the same instance.
	p2, err := reg.Get("demo_v1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if p != p2 {
		t.Fatal("expected cached singleton, got distinct instances")
	}
}

func TestRegistryUnknownKey(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("unknown_v1")
	if !errors.Is(err, ErrPriorNotFound) {
		t.Fatalf("expected ErrPriorNotFound, got %v", err)
	}
}

func TestRegistryDuplicateRegister(t *testing.T) {
	reg := NewRegistry()
	loader := func() (EnergyPrior, error) { return newStub("demo"), nil }
	if err := reg.Register("demo_v1", loader); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("demo_v1", loader); !errors.Is(err, ErrDuplicatePrior) {
		t.Fatalf("expected ErrDuplicatePrior, got %v", err)
	}
}

func TestRegistryIdentityMismatch(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("fusion_v1", func() (EnergyPrior, error) { return newStub("grid"), nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := reg.Get("fusion_v1"); err == nil {
		t.Fatal("expected identity mismatch error, got nil")
	}
}

func TestRegistryLazyLoad(t *testing.T) {
	var loads int32
	reg := NewRegistry()
	err := reg.Register("demo_v1", func() (EnergyPrior, error) {
		atomic.AddInt32(&loads, 1)
		return newStub("demo"), nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if atomic.LoadInt32(&loads) != 0 {
		t.Fatal("loader ran at registration time")
	}

	// Concurrent Gets build the singleton exactly once.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reg.Get("demo_v1"); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Fatalf("expected exactly one load, got %d", got)
	}
}

func TestRegistryKeys(t *testing.T) {
	reg := NewRegistry()
	for _, key := range []string{"grid_v1", "cnc_v1", "fusion_v1"} {
		name := key
		if err := reg.Register(name, func() (EnergyPrior, error) { return newStub(name), nil }); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	keys := reg.Keys()
	want := []string{"cnc_v1", "fusion_v1", "grid_v1"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected keys %v, got %v", want, keys)
		}
	}
}
