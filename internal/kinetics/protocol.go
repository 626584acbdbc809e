package kinetics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Policy maps the step index and latest observation to the next action.
// Policies may carry per-episode state, so build a fresh one per episode
// via NewProtocol.
type Policy interface {
	Name() string
	Action(step int, obs Observation) Action
}

// ErrUnknownProtocol is wrapped by NewProtocol for unrecognized names.
var ErrUnknownProtocol = errors.New("unknown protocol")

const (
	defaultRampHoldFraction = 0.70
	defaultQuenchFraction   = 0.75
	defaultBreakInThickness = 10.0
)

// NewProtocol builds a fresh policy instance by name. Furnace protocols:
// always-heat, always-hold, always-cool, ramp-hold, pulse-quench. Cell
// protocols: rest, slow-charge, fast-charge, break-in.
func NewProtocol(name string) (Policy, error) {
	scrubbed := strings.TrimSpace(strings.ToLower(name))
	scrubbed = strings.ReplaceAll(scrubbed, "_", "-")
	scrubbed = strings.ReplaceAll(scrubbed, " ", "-")
	switch scrubbed {
	case "always-heat":
		return constantPolicy{name: "always-heat", choice: Heat}, nil
	case "always-hold":
		return constantPolicy{name: "always-hold", choice: Hold}, nil
	case "always-cool":
		return constantPolicy{name: "always-cool", choice: Cool}, nil
	case "ramp-hold":
		return RampHoldAt(defaultRampHoldFraction), nil
	case "pulse-quench":
		return PulseQuenchAt(defaultQuenchFraction), nil
	case "rest":
		return constantPolicy{name: "rest", choice: Rest}, nil
	case "slow-charge":
		return constantPolicy{name: "slow-charge", choice: Slow}, nil
	case "fast-charge":
		return constantPolicy{name: "fast-charge", choice: Fast}, nil
	case "break-in":
		return BreakInAt(defaultBreakInThickness), nil
	default:
		return nil, fmt.Errorf("protocol %q: %w", name, ErrUnknownProtocol)
	}
}

// Protocols lists every protocol name NewProtocol accepts, sorted.
func Protocols() []string {
	names := []string{
		"always-heat", "always-hold", "always-cool",
		"ramp-hold", "pulse-quench",
		"rest", "slow-charge", "fast-charge", "break-in",
	}
	sort.Strings(names)
	return names
}

// RampHoldAt heats until the normalized temperature observation reaches
// target, then holds for the rest of the episode.
func RampHoldAt(target float64) Policy {
	return rampHold{target: target}
}

// PulseQuenchAt heats until the normalized temperature observation first
// reaches target, then cools for the rest of the episode.
func PulseQuenchAt(target float64) Policy {
	return &pulseQuench{target: target}
}

// BreakInAt charges slowly until the film thickness observation reaches
// threshold, then switches to fast charging.
func BreakInAt(threshold float64) Policy {
	return breakIn{threshold: threshold}
}

type constantPolicy struct {
	name   string
	choice int
}

func (p constantPolicy) Name() string { return p.name }

func (p constantPolicy) Action(int, Observation) Action { return Discrete(p.choice) }

type rampHold struct {
	target float64
}

func (p rampHold) Name() string { return "ramp-hold" }

func (p rampHold) Action(_ int, obs Observation) Action {
	if len(obs) > 0 && obs[0] < p.target {
		return Discrete(Heat)
	}
	return Discrete(Hold)
}

// pulseQuench latches: once the target is reached it keeps cooling even if
// the temperature falls back below the target.
type pulseQuench struct {
	target float64
	fired  bool
}

func (p *pulseQuench) Name() string { return "pulse-quench" }

func (p *pulseQuench) Action(_ int, obs Observation) Action {
	if !p.fired && len(obs) > 0 && obs[0] >= p.target {
		p.fired = true
	}
	if p.fired {
		return Discrete(Cool)
	}
	return Discrete(Heat)
}

type breakIn struct {
	threshold float64
}

func (p breakIn) Name() string { return "break-in" }

func (p breakIn) Action(_ int, obs Observation) Action {
	if len(obs) > 0 && obs[0] < p.threshold {
		return Discrete(Slow)
	}
	return Discrete(Fast)
}

// Continuousize rewraps a discrete policy so each choice reaches the
// simulator as its equivalent continuous level. The simulator must expose a
// choice-to-level map; both furnace and cell do.
func Continuousize(p Policy, sim Simulator) (Policy, error) {
	if p == nil {
		return nil, errors.New("continuousize needs a policy")
	}
	leveler, ok := sim.(interface{ ChoiceLevels() [3]float64 })
	if !ok {
		return nil, fmt.Errorf("simulator %q has no continuous action map", sim.Name())
	}
	return &continuousPolicy{inner: p, levels: leveler.ChoiceLevels()}, nil
}

type continuousPolicy struct {
	inner  Policy
	levels [3]float64
}

func (p *continuousPolicy) Name() string { return p.inner.Name() }

func (p *continuousPolicy) Action(step int, obs Observation) Action {
	act := p.inner.Action(step, obs)
	if act.Continuous || act.Choice < 0 || act.Choice > Heat {
		return act
	}
	return Continuous(p.levels[act.Choice])
}
