// Package doping searches halogen dopant loadings for the beta-Li3PS4
// solid electrolyte: a closed-form voltage response stands in for the wet
// lab, a quadratic surrogate with expected improvement picks the next
// composition to try, and a charge-balance validator judges the winner.
package doping

import (
	"errors"
	"math/rand"
)

// Composition is a halogen loading per formula unit, substituting sulfur.
type Composition struct {
	Cl float64 `json:"cl"`
	Br float64 `json:"br"`
	I  float64 `json:"i"`
}

// Total is the combined dopant fraction.
func (c Composition) Total() float64 { return c.Cl + c.Br + c.I }

// Vector returns the loading as [Cl, Br, I].
func (c Composition) Vector() []float64 { return []float64{c.Cl, c.Br, c.I} }

// ResponseParams fixes the voltage-response constants. Radii are Shannon
// VI-coordination values in picometers; electronegativities are Pauling.
type ResponseParams struct {
	BaseVoltage float64 // pure beta-Li3PS4 vs Li/Li+

	SulfurRadius   float64
	ChlorineRadius float64
	BromineRadius  float64
	IodineRadius   float64

	SulfurEN   float64
	ChlorineEN float64
	BromineEN  float64
	IodineEN   float64

	GainScale       float64 // fitted coefficient for sulfides
	StrainCritical  float64 // above this the structure collapses
	StrainSoft      float64 // above this, mild distortion
	CriticalPenalty float64
	SoftPenaltyGain float64

	SolubilityLimit float64 // total loading above this is insoluble
	MinimumLoading  float64 // below this the material is effectively pure

	NoiseStd float64 // experimental noise, 0 disables
}

// DefaultResponseParams returns the literature constants.
func DefaultResponseParams() ResponseParams {
	return ResponseParams{
		BaseVoltage:     2.3,
		SulfurRadius:    184,
		ChlorineRadius:  181,
		BromineRadius:   196,
		IodineRadius:    220,
		SulfurEN:        2.58,
		ChlorineEN:      3.16,
		BromineEN:       2.96,
		IodineEN:        2.66,
		GainScale:       1.5,
		StrainCritical:  300,
		StrainSoft:      100,
		CriticalPenalty: 2.0,
		SoftPenaltyGain: 0.001,
		SolubilityLimit: 1.0,
		MinimumLoading:  0.01,
		NoiseStd:        0.02,
	}
}

// Strain is the lattice strain energy of a loading: per-halogen squared
// radius deltas against the sulfur host, linearly mixed.
func (p ResponseParams) Strain(c Composition) float64 {
	dCl := p.ChlorineRadius - p.SulfurRadius
	dBr := p.BromineRadius - p.SulfurRadius
	dI := p.IodineRadius - p.SulfurRadius
	return c.Cl*dCl*dCl + c.Br*dBr*dBr + c.I*dI*dI
}

// Response measures the electrochemical stability window of a doped
// composition. It plays the experiment's role: the optimizer only ever
// sees its scalar output.
type Response struct {
	params ResponseParams
	rng    *rand.Rand
}

// NewResponse builds a response. The random source feeds the measurement
// noise and is required whenever NoiseStd is nonzero.
func NewResponse(params ResponseParams, rng *rand.Rand) (*Response, error) {
	if params.NoiseStd < 0 {
		return nil, errors.New("noise std must not be negative")
	}
	if params.NoiseStd > 0 && rng == nil {
		return nil, errors.New("noisy response needs a random source")
	}
	return &Response{params: params, rng: rng}, nil
}

// Params returns the constants the response was built with.
func (r *Response) Params() ResponseParams { return r.params }

// Measure returns the stability window voltage for a loading. Loadings
// beyond the solubility limit return 0 (the sample never forms); loadings
// below the minimum return the undoped base voltage. Neither short-circuit
// carries the noise term.
func (r *Response) Measure(c Composition) float64 {
	p := r.params
	total := c.Total()
	if total > p.SolubilityLimit {
		return 0
	}
	if total < p.MinimumLoading {
		return p.BaseVoltage
	}

	gain := p.GainScale * (c.Cl*(p.ChlorineEN-p.SulfurEN) +
		c.Br*(p.BromineEN-p.SulfurEN) +
		c.I*(p.IodineEN-p.SulfurEN))

	strain := p.Strain(c)
	penalty := 0.0
	switch {
	case strain > p.StrainCritical:
		penalty = p.CriticalPenalty
	case strain > p.StrainSoft:
		penalty = p.SoftPenaltyGain * strain
	}

	voltage := p.BaseVoltage + gain - penalty
	if p.NoiseStd > 0 {
		voltage += r.rng.NormFloat64() * p.NoiseStd
	}
	return voltage
}

// Feasibility notes attached to optimizer observations.
const (
	NoteStable     = "stable"
	NoteInsoluble  = "insoluble"
	NoteHighStrain = "high_strain"
)

// Note classifies a loading for the observation log.
func (p ResponseParams) Note(c Composition) string {
	switch {
	case c.Total() > p.SolubilityLimit:
		return NoteInsoluble
	case p.Strain(c) > p.StrainCritical:
		return NoteHighStrain
	default:
		return NoteStable
	}
}
