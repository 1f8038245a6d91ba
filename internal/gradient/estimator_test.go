package gradient

import (
	"errors"
	"math"
	"testing"

	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
)

// bowl is E = Σ x² over one field, with a switchable analytic gradient.
type bowl struct {
	analytic bool
	badShape bool
}

func (b *bowl) Info() prior.Info {
	return prior.Info{Name: "bowl", Version: 1, RequiredFields: []string{"x"}, Weight: 1}
}

func (b *bowl) Validate(s state.State) error {
	return prior.RequireFields(b.Info(), s)
}

func (b *bowl) Energy(s state.State) (float64, error) {
	var e float64
	for _, x := range s["x"] {
		e += x * x
	}
	return e, nil
}

func (b *bowl) Gradient(s state.State) (prior.Gradient, error) {
	if !b.analytic {
		return nil, prior.ErrNoAnalyticGradient
	}
	vec := s["x"]
	n := len(vec)
	if b.badShape {
		n--
	}
	g := make([]float64, n)
	for i := 0; i < n; i++ {
		g[i] = 2 * vec[i]
	}
	return prior.Gradient{"x": g}, nil
}

func TestFiniteDifferenceMatchesAnalytic(t *testing.T) {
	p := &bowl{}
	s := state.State{"x": {1.5, -2, 0.25}}

	g, err := FiniteDifference{}.Gradient(p, s)
	if err != nil {
		t.Fatalf("gradient: %v", err)
	}
	// Forward differences on x² carry an O(eps) bias; 1e-3 absolute
	// tolerance is generous for eps=1e-4.
	for i, x := range s["x"] {
		if math.Abs(g["x"][i]-2*x) > 1e-3 {
			t.Fatalf("component %d: expected %f, got %f", i, 2*x, g["x"][i])
		}
	}
}

func TestFiniteDifferenceLeavesStateUntouched(t *testing.T) {
	p := &bowl{}
	s := state.State{"x": {1, 2, 3}}
	if _, err := (FiniteDifference{}).Gradient(p, s); err != nil {
		t.Fatalf("gradient: %v", err)
	}
	if s["x"][0] != 1 || s["x"][1] != 2 || s["x"][2] != 3 {
		t.Fatalf("estimator mutated its input: %v", s["x"])
	}
}

func TestResolverPrefersAnalytic(t *testing.T) {
	r := Resolver{}
	s := state.State{"x": {2, -1}}

	g, src, err := r.Gradient(&bowl{analytic: true}, s)
	if err != nil {
		t.Fatalf("gradient: %v", err)
	}
	if src != SourceAnalytic {
		t.Fatalf("expected analytic path, got %s", src)
	}
	if g["x"][0] != 4 || g["x"][1] != -2 {
		t.Fatalf("unexpected analytic gradient: %v", g["x"])
	}
}

func TestResolverFallsBackToFiniteDifference(t *testing.T) {
	r := Resolver{}
	s := state.State{"x": {2}}

	g, src, err := r.Gradient(&bowl{}, s)
	if err != nil {
		t.Fatalf("gradient: %v", err)
	}
	if src != SourceFiniteDiff {
		t.Fatalf("expected finite-difference path, got %s", src)
	}
	if math.Abs(g["x"][0]-4) > 1e-3 {
		t.Fatalf("expected ~4, got %f", g["x"][0])
	}
}

func TestResolverRejectsShapeViolation(t *testing.T) {
	r := Resolver{}
	s := state.State{"x": {1, 2, 3}}

	_, _, err := r.Gradient(&bowl{analytic: true, badShape: true}, s)
	var sme *prior.ShapeMismatchError
	if !errors.As(err, &sme) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
}
