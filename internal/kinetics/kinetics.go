// Package kinetics implements the episodic simulators: Arrhenius furnace
// synthesis and SEI growth on a battery anode. One parameterized type per
// physics family; material variants are presets over the same equations.
package kinetics

import (
	"errors"
	"strconv"
)

// Observation is the simulator-specific observation vector. Furnaces emit
// [temp/scale, target, waste, step/budget]; cells emit
// [thickness, resistance, charge].
type Observation []float64

// Trace carries terminal diagnostics keyed by snake_case names.
type Trace map[string]any

// Discrete furnace choices. Cells reuse the encoding with a charging
// vocabulary.
const (
	Cool = iota
	Hold
	Heat
)

const (
	Rest = Cool
	Slow = Hold
	Fast = Heat
)

// Action is either a 3-valued discrete choice or a single continuous level
// in [0,1], depending on how the caller drives the simulator.
type Action struct {
	Choice     int     `json:"choice"`
	Level      float64 `json:"level,omitempty"`
	Continuous bool    `json:"continuous,omitempty"`
}

// Discrete wraps a 3-valued choice.
func Discrete(choice int) Action {
	return Action{Choice: choice}
}

// Continuous wraps a control level in [0,1].
func Continuous(level float64) Action {
	return Action{Level: level, Continuous: true}
}

// Encode renders the action for tabular logs.
func (a Action) Encode() string {
	if a.Continuous {
		return strconv.FormatFloat(a.Level, 'g', -1, 64)
	}
	return strconv.Itoa(a.Choice)
}

// StepResult is the outcome of one simulated step. Info is nil except on
// terminal steps, where it carries a termination_reason and final state.
type StepResult struct {
	Obs    Observation
	Reward float64
	Done   bool
	Info   Trace
}

// Simulator is the reset/step contract shared by furnace and cell. A
// simulator instance belongs to a single goroutine; it owns its random
// source and never locks.
type Simulator interface {
	Name() string
	Reset() Observation
	Step(action Action) (StepResult, error)
	MaxSteps() int
	// ObsColumns names the observation entries, in vector order, for
	// tabular logs.
	ObsColumns() []string
}

// Termination reasons reported in terminal Trace entries.
const (
	ReasonStepBudget     = "step_budget"
	ReasonDendriteShort  = "dendrite_short"
	ReasonImpedanceChoke = "impedance_choke"
)

// ErrEpisodeOver is returned by Step when called after a terminal step.
var ErrEpisodeOver = errors.New("episode is over, reset before stepping")

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
