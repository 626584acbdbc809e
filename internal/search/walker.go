// Package search drives stochastic local search over compositions, scored by
// an injected oracle.
package search

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"

	"crucible/internal/logging"
	"crucible/internal/material"
	"crucible/internal/oracle"
)

// DefaultTemperature is the Metropolis acceptance temperature in eV.
const DefaultTemperature = 0.05

// Walker performs a Metropolis walk over ABX3 substitutions. Lower scores
// are better (energy above hull). A Walker is a single-goroutine object;
// run one per seed formula.
type Walker struct {
	Rand        *rand.Rand
	Scorer      oracle.Scorer
	Temperature float64

	log *slog.Logger
}

// StepRecord is one appended history row. Formula and Score describe the
// proposed candidate whether or not it was accepted.
type StepRecord struct {
	Step     int     `json:"step"`
	Formula  string  `json:"formula"`
	Score    float64 `json:"score"`
	Accepted bool    `json:"accepted"`
	Current  float64 `json:"current"`
	Best     float64 `json:"best"`
}

// History is the full trace of one walk.
type History struct {
	Start        string       `json:"start"`
	StartScore   float64      `json:"start_score"`
	Steps        []StepRecord `json:"steps"`
	FinalFormula string       `json:"final_formula"`
	BestFormula  string       `json:"best_formula"`
	BestScore    float64      `json:"best_score"`
}

// Walk runs the Metropolis loop for the given number of steps starting from
// startFormula. Every step proposes a single-site substitution, scores it,
// and accepts when the score improves or with probability exp(-diff/T)
// otherwise. The returned history holds one record per step; persistence
// happens once, after the walk, by the caller.
func (w *Walker) Walk(ctx context.Context, startFormula string, steps int) (History, error) {
	if err := ctx.Err(); err != nil {
		return History{}, err
	}
	if w == nil || w.Rand == nil {
		return History{}, errors.New("random source is required")
	}
	if w.Scorer == nil {
		return History{}, errors.New("scorer is required")
	}
	if steps <= 0 {
		return History{}, errors.New("steps must be > 0")
	}
	temperature := w.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	if temperature < 0 {
		return History{}, errors.New("temperature must be > 0")
	}
	if w.log == nil {
		w.log = logging.New("walker")
	}

	current := startFormula
	currentScore, err := w.Scorer.Score(current)
	if err != nil {
		return History{}, err
	}
	best := current
	bestScore := currentScore

	history := History{
		Start:      startFormula,
		StartScore: currentScore,
		Steps:      make([]StepRecord, 0, steps),
	}

	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return History{}, err
		}

		candidate := w.propose(current)
		score, err := w.Scorer.Score(candidate)
		if err != nil {
			return History{}, err
		}

		diff := score - currentScore
		accepted := diff < 0 || w.Rand.Float64() < math.Exp(-diff/temperature)
		if accepted {
			current = candidate
			currentScore = score
			if score < bestScore {
				bestScore = score
				best = candidate
				w.log.Info("new champion", "step", i, "formula", candidate, "score", score)
			}
		}

		history.Steps = append(history.Steps, StepRecord{
			Step:     i,
			Formula:  candidate,
			Score:    score,
			Accepted: accepted,
			Current:  currentScore,
			Best:     bestScore,
		})
	}

	history.FinalFormula = current
	history.BestFormula = best
	history.BestScore = bestScore
	return history, nil
}

// propose mutates one site of the current formula. A formula that does not
// parse into three sites cannot be mutated; the proposal is then the current
// formula unchanged, which stalls the walk, so the event is logged.
func (w *Walker) propose(current string) string {
	comp, err := material.Parse(current)
	if err != nil {
		w.log.Warn("formula did not parse, proposal is a no-op", "formula", current, "err", err)
		return current
	}
	return material.Mutate(comp, w.Rand).String()
}
