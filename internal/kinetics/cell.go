package kinetics

import (
	"errors"
	"fmt"
	"math/rand"
)

// CellParams fixes one anode charging scenario: parabolic SEI growth driven
// by current density, with dendrite and impedance failure modes layered on
// top. Thickness is in nanometers, current density in C-rate units.
type CellParams struct {
	Name     string `yaml:"name"`
	Material string `yaml:"material"`

	InitialSEI        float64 `yaml:"initial_sei_nm"`
	GrowthBase        float64 `yaml:"growth_base"`
	GrowthCurrentGain float64 `yaml:"growth_current_gain"`
	GrowthDamping     float64 `yaml:"growth_damping"`
	ResistancePerNM   float64 `yaml:"resistance_per_nm"`

	CriticalCurrent   float64 `yaml:"critical_current"`
	DendriteThinSEI   float64 `yaml:"dendrite_thin_sei_nm"`
	DendriteRiskThin  float64 `yaml:"dendrite_risk_thin"`
	DendriteRiskThick float64 `yaml:"dendrite_risk_thick"`
	ChokeThickness    float64 `yaml:"choke_thickness_nm"`

	TimeStep float64 `yaml:"time_step"`
	MaxSteps int     `yaml:"max_steps"`

	DiscreteCurrents []float64 `yaml:"discrete_currents"`
	MaxCurrent       float64   `yaml:"max_current"`

	ThroughputGain      float64 `yaml:"throughput_gain"`
	ResistancePenalty   float64 `yaml:"resistance_penalty"`
	DendritePenalty     float64 `yaml:"dendrite_penalty"`
	ChokePenalty        float64 `yaml:"choke_penalty"`
	EOLCurrentLimit     float64 `yaml:"eol_current_limit"`
	EOLCurrentPenalty   float64 `yaml:"eol_current_penalty"`
	EOLThicknessLimit   float64 `yaml:"eol_thickness_limit_nm"`
	EOLThicknessPenalty float64 `yaml:"eol_thickness_penalty"`
	BreakInSEI          float64 `yaml:"break_in_sei_nm"`
	BreakInCurrentLimit float64 `yaml:"break_in_current_limit"`
	BreakInPenalty      float64 `yaml:"break_in_penalty"`
}

// Validate reports the first structural problem with the parameters.
func (p CellParams) Validate() error {
	switch {
	case p.Name == "":
		return errors.New("cell params need a name")
	case p.InitialSEI <= 0:
		return errors.New("initial SEI thickness must be positive")
	case p.GrowthBase <= 0 || p.GrowthDamping <= 0:
		return errors.New("growth constants must be positive")
	case p.TimeStep <= 0:
		return errors.New("time step must be positive")
	case p.MaxSteps <= 0:
		return errors.New("step budget must be positive")
	case len(p.DiscreteCurrents) != 3:
		return errors.New("discrete currents must map the 3-valued action")
	case p.MaxCurrent <= 0:
		return errors.New("max current must be positive")
	case p.DendriteRiskThin < 0 || p.DendriteRiskThin > 1 ||
		p.DendriteRiskThick < 0 || p.DendriteRiskThick > 1:
		return errors.New("dendrite risks must be probabilities")
	}
	return nil
}

// Cell simulates SEI film growth on a charging anode. The random source
// drives only the dendrite draw.
type Cell struct {
	params CellParams
	rng    *rand.Rand

	thickness float64
	charge    float64
	step      int
	done      bool
}

// NewCell builds a cell from validated params.
func NewCell(params CellParams, rng *rand.Rand) (*Cell, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("cell %q: %w", params.Name, err)
	}
	if rng == nil {
		return nil, errors.New("cell needs a random source")
	}
	c := &Cell{params: params, rng: rng}
	c.Reset()
	return c, nil
}

func (c *Cell) Name() string { return c.params.Name }

// Params returns the scenario constants the cell was built with.
func (c *Cell) Params() CellParams { return c.params }

func (c *Cell) MaxSteps() int { return c.params.MaxSteps }

// Reset restores the pristine film. The reset itself is deterministic; only
// dendrite draws consume randomness.
func (c *Cell) Reset() Observation {
	c.thickness = c.params.InitialSEI
	c.charge = 0
	c.step = 0
	c.done = false
	return c.observe()
}

// Thickness reports the current SEI thickness in nanometers.
func (c *Cell) Thickness() float64 { return c.thickness }

// Step applies one charging interval at the requested current density.
// Discrete actions select from the scenario's current table
// (rest/slow/fast); a continuous level scales MaxCurrent.
func (c *Cell) Step(action Action) (StepResult, error) {
	if c.done {
		return StepResult{}, ErrEpisodeOver
	}
	p := c.params

	var current float64
	if action.Continuous {
		current = clamp01(action.Level) * p.MaxCurrent
	} else {
		if action.Choice < 0 || action.Choice >= len(p.DiscreteCurrents) {
			return StepResult{}, fmt.Errorf("cell action %d is not rest/slow/fast", action.Choice)
		}
		current = p.DiscreteCurrents[action.Choice]
	}

	// Parabolic growth law: the film slows its own growth as it thickens.
	growth := p.GrowthBase * (1 + p.GrowthCurrentGain*current)
	c.thickness += growth / (p.GrowthDamping * c.thickness)
	resistance := p.ResistancePerNM * c.thickness

	dendrite := false
	if current > p.CriticalCurrent {
		risk := p.DendriteRiskThick
		if c.thickness < p.DendriteThinSEI {
			risk = p.DendriteRiskThin
		}
		dendrite = c.rng.Float64() < risk
	}

	c.step++
	reward := current*p.ThroughputGain - resistance*p.ResistancePenalty

	res := StepResult{}
	reason := ""
	switch {
	case dendrite:
		reward -= p.DendritePenalty
		reason = ReasonDendriteShort
	case c.thickness > p.ChokeThickness:
		reward -= p.ChokePenalty
		reason = ReasonImpedanceChoke
	case c.step >= p.MaxSteps:
		reason = ReasonStepBudget
		if current > p.EOLCurrentLimit {
			reward -= p.EOLCurrentPenalty
		}
		if c.thickness > p.EOLThicknessLimit {
			reward -= p.EOLThicknessPenalty
		}
	}
	// Fast charging through an immature film is penalized on every step,
	// terminal ones included.
	if c.thickness < p.BreakInSEI && current > p.BreakInCurrentLimit {
		reward -= p.BreakInPenalty
	}

	c.charge += current * p.TimeStep

	if reason != "" {
		c.done = true
		res.Done = true
		res.Info = Trace{
			"termination_reason": reason,
			"final_thickness_nm": c.thickness,
			"final_resistance":   resistance,
			"final_charge":       c.charge,
			"final_current":      current,
		}
	}
	res.Reward = reward
	res.Obs = c.observe()
	return res, nil
}

// ObsColumns names the cell observation entries.
func (c *Cell) ObsColumns() []string {
	return []string{"thickness_nm", "resistance", "charge"}
}

// ChoiceLevels maps rest/slow/fast to the continuous levels that draw the
// same currents from the scenario's table.
func (c *Cell) ChoiceLevels() [3]float64 {
	p := c.params
	var levels [3]float64
	for choice, current := range p.DiscreteCurrents {
		levels[choice] = clamp01(current / p.MaxCurrent)
	}
	return levels
}

func (c *Cell) observe() Observation {
	return Observation{
		c.thickness,
		c.params.ResistancePerNM * c.thickness,
		c.charge,
	}
}
