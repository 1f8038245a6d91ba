// Package state defines the value types carried through a sampling run:
// a State is a mapping from named process fields (e.g. "B", "rho",
// "state_vector") to numeric vectors. States are plain values; every
// sampling call owns its own copies and nothing here is shared.
package state

import (
	"math"
	"sort"
)

// #region state

// State maps a field name to its numeric vector. Field shapes are
// independent of each other; a prior's Validate decides which fields must
// be present and how their shapes relate.
type State map[string][]float64

// Clone returns a deep copy. Samplers clone before mutating so the
// caller's state and every recorded trajectory point stay untouched.
func (s State) Clone() State {
	c := make(State, len(s))
	for field, vec := range s {
		cv := make([]float64, len(vec))
		copy(cv, vec)
		c[field] = cv
	}
	return c
}

// Has reports whether the field is present (a present-but-empty vector
// still counts as present).
func (s State) Has(field string) bool {
	_, ok := s[field]
	return ok
}

// Fields returns the field names in sorted order, so iteration over a
// state is deterministic across runs.
func (s State) Fields() []string {
	names := make([]string, 0, len(s))
	for f := range s {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// Dim returns the total number of scalar components across all fields.
func (s State) Dim() int {
	n := 0
	for _, vec := range s {
		n += len(vec)
	}
	return n
}

// IsFinite reports whether every component is a finite number.
func (s State) IsFinite() bool {
	for _, vec := range s {
		for _, v := range vec {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Norm returns the L2 norm over all fields, treating the state as one
// flattened vector.
func (s State) Norm() float64 {
	var sumSq float64
	for _, vec := range s {
		for _, v := range vec {
			sumSq += v * v
		}
	}
	return math.Sqrt(sumSq)
}

// #endregion state

// #region shape

// SameShape reports whether two states have identical field sets and
// per-field lengths.
func SameShape(a, b State) bool {
	if len(a) != len(b) {
		return false
	}
	for field, vec := range a {
		other, ok := b[field]
		if !ok || len(other) != len(vec) {
			return false
		}
	}
	return true
}

// #endregion shape
