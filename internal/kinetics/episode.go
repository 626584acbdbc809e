package kinetics

import (
	"context"
	"errors"
	"fmt"
)

// TrajectoryStep is one recorded transition.
type TrajectoryStep struct {
	Step   int         `json:"step"`
	Action Action      `json:"action"`
	Obs    Observation `json:"obs"`
	Reward float64     `json:"reward"`
}

// Trajectory is the full record of one episode.
type Trajectory struct {
	Simulator   string           `json:"simulator"`
	Protocol    string           `json:"protocol"`
	Steps       []TrajectoryStep `json:"steps"`
	TotalReward float64          `json:"total_reward"`
	Termination string           `json:"termination"`
	Final       Trace            `json:"final"`
}

// FinalObs returns the observation after the last step, or nil for an empty
// trajectory.
func (t Trajectory) FinalObs() Observation {
	if len(t.Steps) == 0 {
		return nil
	}
	return t.Steps[len(t.Steps)-1].Obs
}

// FinalValue reads a float diagnostic from the terminal trace.
func (t Trajectory) FinalValue(key string) (float64, bool) {
	v, ok := t.Final[key].(float64)
	return v, ok
}

// Run drives one episode of sim under policy, resetting the simulator
// first. The context is checked between steps only; a step itself is never
// interrupted.
func Run(ctx context.Context, sim Simulator, policy Policy) (Trajectory, error) {
	if sim == nil {
		return Trajectory{}, errors.New("episode needs a simulator")
	}
	if policy == nil {
		return Trajectory{}, errors.New("episode needs a policy")
	}
	obs := sim.Reset()
	return run(ctx, sim, policy, obs)
}

// RunFrom drives one episode from a fixed start temperature, for
// benchmarks that want start jitter removed. The simulator must support
// ResetAt; furnaces do, cells reset deterministically anyway.
func RunFrom(ctx context.Context, sim Simulator, policy Policy, startTemp float64) (Trajectory, error) {
	if sim == nil {
		return Trajectory{}, errors.New("episode needs a simulator")
	}
	if policy == nil {
		return Trajectory{}, errors.New("episode needs a policy")
	}
	resettable, ok := sim.(interface{ ResetAt(float64) Observation })
	if !ok {
		return Trajectory{}, fmt.Errorf("simulator %q cannot start at a fixed temperature", sim.Name())
	}
	obs := resettable.ResetAt(startTemp)
	return run(ctx, sim, policy, obs)
}

func run(ctx context.Context, sim Simulator, policy Policy, obs Observation) (Trajectory, error) {
	traj := Trajectory{Simulator: sim.Name(), Protocol: policy.Name()}
	budget := sim.MaxSteps()
	for step := 0; step < budget; step++ {
		if err := ctx.Err(); err != nil {
			return traj, err
		}
		action := policy.Action(step, obs)
		res, err := sim.Step(action)
		if err != nil {
			return traj, fmt.Errorf("step %d: %w", step, err)
		}
		traj.Steps = append(traj.Steps, TrajectoryStep{
			Step:   step,
			Action: action,
			Obs:    res.Obs,
			Reward: res.Reward,
		})
		traj.TotalReward += res.Reward
		obs = res.Obs
		if res.Done {
			traj.Final = res.Info
			if reason, ok := res.Info["termination_reason"].(string); ok {
				traj.Termination = reason
			}
			return traj, nil
		}
	}
	return traj, errors.New("simulator did not terminate within its step budget")
}
