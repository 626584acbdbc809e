package kinetics

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// FurnaceParams fixes one synthesis route: two Arrhenius channels
// (precursor -> target, target -> waste) integrated by explicit Euler over
// normalized mass fractions, plus the reward shaping around them.
// Activation energies are pre-divided by the gas constant, so rates are
// k = prefactor * exp(-activation/T) with T in kelvin.
type FurnaceParams struct {
	Name     string `yaml:"name"`
	Material string `yaml:"material"`

	FormationPrefactor  float64 `yaml:"formation_prefactor"`
	FormationActivation float64 `yaml:"formation_activation_k"`
	DecayPrefactor      float64 `yaml:"decay_prefactor"`
	DecayActivation     float64 `yaml:"decay_activation_k"`

	TimeStep float64 `yaml:"time_step_min"`
	MaxSteps int     `yaml:"max_steps"`

	TempMin       float64 `yaml:"temp_min_k"`
	TempMax       float64 `yaml:"temp_max_k"`
	TempStep      float64 `yaml:"temp_step_k"`
	StartTempLow  float64 `yaml:"start_temp_low_k"`
	StartTempHigh float64 `yaml:"start_temp_high_k"`
	ObsTempScale  float64 `yaml:"obs_temp_scale_k"`

	GrowthRewardGain    float64 `yaml:"growth_reward_gain"`
	WasteThreshold      float64 `yaml:"waste_threshold"`
	WastePenaltyFlat    float64 `yaml:"waste_penalty_flat"`
	WastePenaltyGain    float64 `yaml:"waste_penalty_gain"`
	DecayPenaltyGain    float64 `yaml:"decay_penalty_gain"`
	CompletionBonusGain float64 `yaml:"completion_bonus_gain"`
}

// Validate reports the first structural problem with the parameters.
func (p FurnaceParams) Validate() error {
	switch {
	case p.Name == "":
		return errors.New("furnace params need a name")
	case p.FormationPrefactor <= 0 || p.DecayPrefactor <= 0:
		return errors.New("rate prefactors must be positive")
	case p.FormationActivation <= 0 || p.DecayActivation <= 0:
		return errors.New("activation temperatures must be positive")
	case p.TimeStep <= 0:
		return errors.New("time step must be positive")
	case p.MaxSteps <= 0:
		return errors.New("step budget must be positive")
	case p.TempMin <= 0 || p.TempMax <= p.TempMin:
		return errors.New("temperature band must satisfy 0 < min < max")
	case p.TempStep <= 0:
		return errors.New("temperature step must be positive")
	case p.StartTempLow > p.StartTempHigh:
		return errors.New("start temperature range is inverted")
	case p.StartTempLow < p.TempMin || p.StartTempHigh > p.TempMax:
		return errors.New("start temperature range escapes the band")
	case p.ObsTempScale <= 0:
		return errors.New("observation temperature scale must be positive")
	}
	return nil
}

// Furnace is a single-goroutine episodic reactor. The mass state is three
// fractions (precursor, target, waste) that start at (1, 0, 0) and keep
// summing to 1: each Euler flow is capped at the donor pool so no clamp can
// create or destroy mass.
type Furnace struct {
	params FurnaceParams
	rng    *rand.Rand

	temp      float64
	precursor float64
	target    float64
	waste     float64
	step      int
	done      bool
}

// NewFurnace builds a furnace from validated params. The random source
// drives only the start temperature draw; a fixed seed gives a fully
// deterministic episode.
func NewFurnace(params FurnaceParams, rng *rand.Rand) (*Furnace, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("furnace %q: %w", params.Name, err)
	}
	if rng == nil {
		return nil, errors.New("furnace needs a random source")
	}
	f := &Furnace{params: params, rng: rng}
	f.Reset()
	return f, nil
}

func (f *Furnace) Name() string { return f.params.Name }

// Params returns the route constants the furnace was built with.
func (f *Furnace) Params() FurnaceParams { return f.params }

func (f *Furnace) MaxSteps() int { return f.params.MaxSteps }

// Reset draws a start temperature from the route's start range and reloads
// the boat with pure precursor.
func (f *Furnace) Reset() Observation {
	p := f.params
	temp := p.StartTempLow
	if p.StartTempHigh > p.StartTempLow {
		temp += f.rng.Float64() * (p.StartTempHigh - p.StartTempLow)
	}
	return f.ResetAt(temp)
}

// ResetAt reloads the boat at a caller-chosen start temperature, clamped to
// the route band. Protocol benchmarks use it to remove start jitter.
func (f *Furnace) ResetAt(temp float64) Observation {
	f.temp = clamp(temp, f.params.TempMin, f.params.TempMax)
	f.precursor = 1
	f.target = 0
	f.waste = 0
	f.step = 0
	f.done = false
	return f.observe()
}

// Temperature reports the current furnace temperature in kelvin.
func (f *Furnace) Temperature() float64 { return f.temp }

// Fractions reports the current mass split as (precursor, target, waste).
func (f *Furnace) Fractions() (precursor, target, waste float64) {
	return f.precursor, f.target, f.waste
}

// Step applies one setpoint move and integrates the kinetics over one time
// step. Discrete actions move the setpoint by the route's temperature step
// (cool/hold/heat); a continuous level in [0,1] maps linearly onto
// [-step, +step].
func (f *Furnace) Step(action Action) (StepResult, error) {
	if f.done {
		return StepResult{}, ErrEpisodeOver
	}
	p := f.params

	var delta float64
	if action.Continuous {
		delta = (2*clamp01(action.Level) - 1) * p.TempStep
	} else {
		switch action.Choice {
		case Cool:
			delta = -p.TempStep
		case Hold:
			delta = 0
		case Heat:
			delta = p.TempStep
		default:
			return StepResult{}, fmt.Errorf("furnace action %d is not cool/hold/heat", action.Choice)
		}
	}
	f.temp = clamp(f.temp+delta, p.TempMin, p.TempMax)

	kForm := p.FormationPrefactor * math.Exp(-p.FormationActivation/f.temp)
	kDecay := p.DecayPrefactor * math.Exp(-p.DecayActivation/f.temp)

	// Each flow is capped at its donor pool so the three fractions
	// keep summing to 1 through any temperature spike.
	formed := math.Min(kForm*f.precursor*p.TimeStep, f.precursor)
	decayed := math.Min(kDecay*f.target*p.TimeStep, f.target)

	f.precursor -= formed
	f.target += formed - decayed
	f.waste += decayed
	f.step++

	reward := (formed - decayed) * p.GrowthRewardGain
	if f.waste > p.WasteThreshold {
		reward -= p.WastePenaltyFlat + f.waste*p.WastePenaltyGain
	}
	if decayed > 0 {
		reward -= decayed * p.DecayPenaltyGain
	}

	res := StepResult{Reward: reward}
	if f.step >= p.MaxSteps {
		f.done = true
		res.Done = true
		res.Reward += f.target * p.CompletionBonusGain
		res.Info = Trace{
			"termination_reason": ReasonStepBudget,
			"final_temp_k":       f.temp,
			"final_precursor":    f.precursor,
			"final_target":       f.target,
			"final_waste":        f.waste,
		}
	}
	res.Obs = f.observe()
	return res, nil
}

// ObsColumns names the furnace observation entries.
func (f *Furnace) ObsColumns() []string {
	return []string{"temp_scaled", "target", "waste", "progress"}
}

// ChoiceLevels maps cool/hold/heat to the continuous levels that move the
// setpoint identically.
func (f *Furnace) ChoiceLevels() [3]float64 {
	return [3]float64{Cool: 0, Hold: 0.5, Heat: 1}
}

func (f *Furnace) observe() Observation {
	p := f.params
	return Observation{
		f.temp / p.ObsTempScale,
		f.target,
		f.waste,
		float64(f.step) / float64(p.MaxSteps),
	}
}
