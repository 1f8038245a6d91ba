package prior

import (
	"errors"
	"strings"
	"testing"

	"github.com/veridyne/twinsampler/internal/state"
)

func TestRequireFieldsNamesAllMissing(t *testing.T) {
	info := Info{Name: "fusion", Version: 1, RequiredFields: []string{"B", "rho", "v"}}
	s := state.State{"rho": {1}}

	err := RequireFields(info, s)
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if len(mfe.Fields) != 2 {
		t.Fatalf("expected both missing fields reported, got %v", mfe.Fields)
	}
	msg := err.Error()
	if !strings.Contains(msg, "B") || !strings.Contains(msg, "v") {
		t.Fatalf("error should name every missing field: %s", msg)
	}
}

func TestRequireFieldsPasses(t *testing.T) {
	info := Info{Name: "grid", Version: 1, RequiredFields: []string{"injection", "demand"}}
	s := state.State{"injection": {1, 2}, "demand": {1, 2}, "extra": {0}}
	if err := RequireFields(info, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckShapes(t *testing.T) {
	info := Info{Name: "fusion", Version: 1, RequiredFields: []string{"B", "rho"}}
	s := state.State{"B": {1, 2, 3}, "rho": {1, 2, 3}}

	good := Gradient{"B": {0, 0, 0}, "rho": {0, 0, 0}}
	if err := CheckShapes(info, s, good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	short := Gradient{"B": {0, 0}, "rho": {0, 0, 0}}
	var sme *ShapeMismatchError
	if err := CheckShapes(info, s, short); !errors.As(err, &sme) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
	if sme.Field != "B" || sme.Want != 3 || sme.Got != 2 {
		t.Fatalf("unexpected mismatch detail: %+v", sme)
	}

	absent := Gradient{"B": {0, 0, 0}}
	if err := CheckShapes(info, s, absent); !errors.As(err, &sme) {
		t.Fatalf("expected ShapeMismatchError for absent field, got %v", err)
	}
	if sme.Field != "rho" || sme.Got != -1 {
		t.Fatalf("absent gradient field should report Got=-1: %+v", sme)
	}
}

func TestInfoKey(t *testing.T) {
	info := Info{Name: "cnc", Version: 2}
	if got := info.Key(); got != "cnc_v2" {
		t.Fatalf("expected cnc_v2, got %s", got)
	}
}
