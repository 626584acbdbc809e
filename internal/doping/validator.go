package doping

import (
	"fmt"
	"math"
)

// Phase labels assigned by the validator.
const (
	PhaseArgyrodite = "argyrodite-like"
	PhaseBetaDoped  = "beta-doped"
)

// Report is the structural verdict on a doped composition.
type Report struct {
	Composition     Composition `json:"composition"`
	ExcessCharge    float64     `json:"excess_charge"`
	LiRemaining     float64     `json:"li_remaining"`
	Formula         string      `json:"formula"`
	VegardStrainPct float64     `json:"vegard_strain_pct"`
	Phase           string      `json:"phase"`
	Findings        []string    `json:"findings,omitempty"`
	Stable          bool        `json:"stable"`
}

// Validator checks whether the lattice can absorb a proposed loading.
type Validator struct {
	params ResponseParams
}

// NewValidator builds a validator sharing the response constants.
func NewValidator(params ResponseParams) *Validator {
	return &Validator{params: params}
}

// Validate applies the aliovalent charge balance: each halogen (1-)
// replacing sulfur (2-) leaves one unit of excess positive charge,
// compensated by a lithium vacancy. Critical findings flag carrier
// depletion (Li below 2 per formula unit) and Vegard strain beyond 5%.
func (v *Validator) Validate(c Composition) Report {
	total := c.Total()
	excess := total
	liRemaining := 3.0 - excess

	report := Report{
		Composition:  c,
		ExcessCharge: excess,
		LiRemaining:  liRemaining,
		Formula: fmt.Sprintf("Li%.2f P S%.2f X%.2f",
			liRemaining, 4.0-total, total),
	}

	if liRemaining < 2.0 {
		report.Findings = append(report.Findings,
			fmt.Sprintf("lithium content too low (%.2f per formula unit), lattice will collapse", liRemaining))
	}

	p := v.params
	avgRadius := p.SulfurRadius
	if total > 0 {
		avgRadius = (c.Cl*p.ChlorineRadius + c.Br*p.BromineRadius + c.I*p.IodineRadius) / total
	}
	report.VegardStrainPct = (avgRadius - p.SulfurRadius) / p.SulfurRadius * 100
	if math.Abs(report.VegardStrainPct) > 5.0 {
		report.Findings = append(report.Findings,
			fmt.Sprintf("lattice strain too high (%+.2f%%), phase separation likely", report.VegardStrainPct))
	}

	report.Phase = PhaseBetaDoped
	if total >= 0.5 && total <= 1.2 {
		report.Phase = PhaseArgyrodite
	}
	report.Stable = len(report.Findings) == 0
	return report
}
