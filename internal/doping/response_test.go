package doping

import (
	"math"
	"math/rand"
	"testing"
)

func quietResponse(t *testing.T) *Response {
	t.Helper()
	params := DefaultResponseParams()
	params.NoiseStd = 0
	response, err := NewResponse(params, nil)
	if err != nil {
		t.Fatalf("build response: %v", err)
	}
	return response
}

func TestResponseSolubilityAndPurityShortCircuits(t *testing.T) {
	params := DefaultResponseParams()
	noisy, err := NewResponse(params, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("build response: %v", err)
	}

	// Both short-circuits bypass the noise term, so even the noisy
	// response returns them exactly.
	if got := noisy.Measure(Composition{Cl: 0.6, Br: 0.3, I: 0.2}); got != 0 {
		t.Fatalf("insoluble loading measured %v, want 0", got)
	}
	if got := noisy.Measure(Composition{Cl: 0.005}); got != 2.3 {
		t.Fatalf("near-pure loading measured %v, want 2.3", got)
	}
}

func TestResponseVoltageArithmetic(t *testing.T) {
	response := quietResponse(t)
	cases := []struct {
		name string
		c    Composition
		want float64
	}{
		// 2.3 + 1.5*0.3*0.58, strain 2.7 stays under the soft limit.
		{"chlorine only", Composition{Cl: 0.3}, 2.561},
		// 2.3 + 1.5*0.8*0.38 - 0.001*115.2 (soft strain).
		{"bromine soft strain", Composition{Br: 0.8}, 2.6408},
		// 2.3 + 1.5*0.3*0.08 - 2.0 (critical strain 388.8).
		{"iodine critical strain", Composition{I: 0.3}, 0.336},
	}
	for _, tc := range cases {
		if got := response.Measure(tc.c); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("%s: measured %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestResponseNoteClassification(t *testing.T) {
	params := DefaultResponseParams()
	cases := []struct {
		c    Composition
		want string
	}{
		{Composition{Cl: 0.3}, NoteStable},
		{Composition{I: 0.3}, NoteHighStrain},
		// Insolubility outranks strain.
		{Composition{I: 1.1}, NoteInsoluble},
	}
	for _, tc := range cases {
		if got := params.Note(tc.c); got != tc.want {
			t.Fatalf("Note(%+v) = %q, want %q", tc.c, got, tc.want)
		}
	}
}

func TestNewResponseValidation(t *testing.T) {
	params := DefaultResponseParams()
	if _, err := NewResponse(params, nil); err == nil {
		t.Fatal("expected an error for noisy response without a random source")
	}
	params.NoiseStd = -1
	if _, err := NewResponse(params, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected an error for negative noise")
	}
}
