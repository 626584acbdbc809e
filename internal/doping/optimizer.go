package doping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"crucible/internal/logging"
)

// Experiment measures the response of one candidate loading.
type Experiment interface {
	Measure(c Composition) float64
}

// Observation is one evaluated loading. Iteration 0 marks seed points.
type Observation struct {
	Iteration   int         `json:"iteration"`
	Composition Composition `json:"composition"`
	Response    float64     `json:"response"`
	Strain      float64     `json:"strain"`
	Note        string      `json:"note"`
}

// Result is the outcome of an optimization run.
type Result struct {
	Best         Composition   `json:"best"`
	BestResponse float64       `json:"best_response"`
	Iterations   int           `json:"iterations"`
	Observations []Observation `json:"observations"`
}

// Optimizer proposes loadings by expected improvement over a quadratic
// surrogate. Zero-valued tuning fields fall back to defaults.
type Optimizer struct {
	Rand       *rand.Rand
	Experiment Experiment
	Params     ResponseParams // classification constants for the log

	SeedPoints int     // valid random starts, default 3
	PoolSize   int     // fixed candidate pool, default 2000
	Xi         float64 // exploration margin, default 0.01
	Ridge      float64 // regularization, default 1e-6

	log *slog.Logger
}

const (
	defaultSeedPoints = 3
	defaultPoolSize   = 2000
	defaultXi         = 0.01
	defaultRidge      = 1e-6
	seedCoordCap      = 0.4
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// Optimize runs the acquisition loop for the given number of iterations
// and returns the best loading ever observed, seeds included.
func (o *Optimizer) Optimize(ctx context.Context, iterations int) (Result, error) {
	if err := o.validate(iterations); err != nil {
		return Result{}, err
	}
	if o.log == nil {
		o.log = logging.New("doping")
	}
	seedPoints := o.SeedPoints
	if seedPoints == 0 {
		seedPoints = defaultSeedPoints
	}
	poolSize := o.PoolSize
	if poolSize == 0 {
		poolSize = defaultPoolSize
	}
	xi := o.Xi
	if xi == 0 {
		xi = defaultXi
	}
	ridge := o.Ridge
	if ridge == 0 {
		ridge = defaultRidge
	}

	var (
		points       [][]float64
		values       []float64
		observations []Observation
	)
	record := func(iteration int, c Composition) {
		response := o.Experiment.Measure(c)
		points = append(points, c.Vector())
		values = append(values, response)
		observations = append(observations, Observation{
			Iteration:   iteration,
			Composition: c,
			Response:    response,
			Strain:      o.Params.Strain(c),
			Note:        o.Params.Note(c),
		})
	}

	// Seed with valid random loadings: coordinates capped low, whole
	// points redrawn until they respect the solubility limit.
	for len(points) < seedPoints {
		c := Composition{
			Cl: o.Rand.Float64() * seedCoordCap,
			Br: o.Rand.Float64() * seedCoordCap,
			I:  o.Rand.Float64() * seedCoordCap,
		}
		if c.Total() <= 1.0 {
			record(0, c)
		}
	}

	// The candidate pool is drawn once and scanned every iteration.
	pool := make([]Composition, poolSize)
	for i := range pool {
		pool[i] = Composition{
			Cl: o.Rand.Float64(),
			Br: o.Rand.Float64(),
			I:  o.Rand.Float64(),
		}
	}

	for iteration := 1; iteration <= iterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		model, err := fitSurrogate(points, values, ridge)
		if err != nil {
			return Result{}, fmt.Errorf("iteration %d: %w", iteration, err)
		}
		best := maxValue(values)

		nextIdx := 0
		bestEI := math.Inf(-1)
		for i, candidate := range pool {
			mu, sigma := model.predict(candidate.Vector())
			if ei := expectedImprovement(mu, sigma, best, xi); ei > bestEI {
				bestEI = ei
				nextIdx = i
			}
		}
		record(iteration, pool[nextIdx])

		latest := observations[len(observations)-1]
		o.log.Debug("evaluated candidate",
			"iteration", iteration,
			"cl", latest.Composition.Cl,
			"br", latest.Composition.Br,
			"i", latest.Composition.I,
			"response", latest.Response,
			"note", latest.Note,
		)
	}

	bestIdx := 0
	for i, v := range values {
		if v > values[bestIdx] {
			bestIdx = i
		}
	}
	result := Result{
		Best:         observations[bestIdx].Composition,
		BestResponse: values[bestIdx],
		Iterations:   iterations,
		Observations: observations,
	}
	o.log.Info("doping optimization finished",
		"iterations", iterations,
		"best_response", result.BestResponse,
		"note", o.Params.Note(result.Best),
	)
	return result, nil
}

func (o *Optimizer) validate(iterations int) error {
	if o.Rand == nil {
		return errors.New("optimizer needs a random source")
	}
	if o.Experiment == nil {
		return errors.New("optimizer needs an experiment")
	}
	if iterations <= 0 {
		return errors.New("iterations must be positive")
	}
	return nil
}

// expectedImprovement is the EI acquisition for maximization. A degenerate
// sigma contributes zero instead of dividing by it.
func expectedImprovement(mu, sigma, best, xi float64) float64 {
	if sigma == 0 {
		return 0
	}
	imp := mu - best - xi
	z := imp / sigma
	return imp*stdNormal.CDF(z) + sigma*stdNormal.Prob(z)
}

func maxValue(values []float64) float64 {
	best := math.Inf(-1)
	for _, v := range values {
		if v > best {
			best = v
		}
	}
	return best
}
