package doping

import (
	"math"
	"strings"
	"testing"
)

func TestValidateChlorineRichLoadingIsStable(t *testing.T) {
	validator := NewValidator(DefaultResponseParams())
	report := validator.Validate(Composition{Cl: 0.75})

	if !report.Stable {
		t.Fatalf("expected a stable report, findings: %v", report.Findings)
	}
	if math.Abs(report.LiRemaining-2.25) > 1e-12 {
		t.Fatalf("remaining lithium = %v, want 2.25", report.LiRemaining)
	}
	if report.Formula != "Li2.25 P S3.25 X0.75" {
		t.Fatalf("formula = %q", report.Formula)
	}
	if report.Phase != PhaseArgyrodite {
		t.Fatalf("phase = %q, want %q", report.Phase, PhaseArgyrodite)
	}
	// Chlorine sits 3 pm under the sulfur radius.
	if math.Abs(report.VegardStrainPct-(-300.0/184.0)) > 1e-9 {
		t.Fatalf("Vegard strain = %v%%", report.VegardStrainPct)
	}
}

func TestValidateFlagsCarrierDepletion(t *testing.T) {
	validator := NewValidator(DefaultResponseParams())
	report := validator.Validate(Composition{Cl: 1.3})

	if report.Stable {
		t.Fatal("over-doped loading should be unstable")
	}
	if math.Abs(report.LiRemaining-1.7) > 1e-12 {
		t.Fatalf("remaining lithium = %v, want 1.7", report.LiRemaining)
	}
	if len(report.Findings) != 1 || !strings.Contains(report.Findings[0], "lithium content too low") {
		t.Fatalf("findings = %v", report.Findings)
	}
	if report.Phase != PhaseBetaDoped {
		t.Fatalf("phase = %q, want %q", report.Phase, PhaseBetaDoped)
	}
}

func TestValidateFlagsVegardStrain(t *testing.T) {
	validator := NewValidator(DefaultResponseParams())
	report := validator.Validate(Composition{I: 0.6})

	if report.Stable {
		t.Fatal("iodine-heavy loading should be unstable")
	}
	// Iodine is 36 pm over the sulfur radius: +19.57%.
	if report.VegardStrainPct < 19 || report.VegardStrainPct > 20 {
		t.Fatalf("Vegard strain = %v%%", report.VegardStrainPct)
	}
	if len(report.Findings) != 1 || !strings.Contains(report.Findings[0], "lattice strain too high") {
		t.Fatalf("findings = %v", report.Findings)
	}
	// The phase label tracks the loading zone, not the stability verdict.
	if report.Phase != PhaseArgyrodite {
		t.Fatalf("phase = %q, want %q", report.Phase, PhaseArgyrodite)
	}
}

func TestValidateZoneEdgeLoadingDepletesLithium(t *testing.T) {
	validator := NewValidator(DefaultResponseParams())
	report := validator.Validate(Composition{Cl: 1.2})

	if report.Stable {
		t.Fatal("Li1.8 loading should be unstable")
	}
	if math.Abs(report.LiRemaining-1.8) > 1e-12 {
		t.Fatalf("remaining lithium = %v, want 1.8", report.LiRemaining)
	}
	if report.Phase != PhaseArgyrodite {
		t.Fatalf("zone edge phase = %q, want %q", report.Phase, PhaseArgyrodite)
	}
}

func TestValidateUndopedHost(t *testing.T) {
	validator := NewValidator(DefaultResponseParams())
	report := validator.Validate(Composition{})

	if !report.Stable {
		t.Fatalf("undoped host should be stable, findings: %v", report.Findings)
	}
	if report.VegardStrainPct != 0 {
		t.Fatalf("undoped strain = %v%%, want 0", report.VegardStrainPct)
	}
	if report.LiRemaining != 3 {
		t.Fatalf("remaining lithium = %v, want 3", report.LiRemaining)
	}
	if report.Phase != PhaseBetaDoped {
		t.Fatalf("phase = %q, want %q", report.Phase, PhaseBetaDoped)
	}
}
