package oracle

import (
	"log/slog"

	"crucible/internal/logging"
	"crucible/internal/material"
)

// Scorer maps a formula string to a scalar. Lower is better for stability
// targets (energy above hull); other targets define their own direction.
type Scorer interface {
	Score(formula string) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(formula string) (float64, error)

func (f ScorerFunc) Score(formula string) (float64, error) { return f(formula) }

// Oracle featurizes formulas and evaluates a loaded model over them. It is
// immutable after construction and safe for concurrent use; construct one per
// artifact at process start and pass it to whatever needs scoring.
type Oracle struct {
	feat  *Featurizer
	model *Model
	log   *slog.Logger
}

// New wires a featurizer to a loaded model.
func New(model *Model) (*Oracle, error) {
	feat, err := NewFeaturizer()
	if err != nil {
		return nil, err
	}
	return &Oracle{feat: feat, model: model, log: logging.New("oracle")}, nil
}

// Load reads a model artifact and returns a ready Oracle.
func Load(path string) (*Oracle, error) {
	model, err := LoadModel(path)
	if err != nil {
		return nil, err
	}
	return New(model)
}

// Name identifies the underlying artifact.
func (o *Oracle) Name() string { return o.model.Name }

// Target names the quantity the artifact predicts.
func (o *Oracle) Target() string { return o.model.Target }

// Score parses, featurizes, aligns and predicts a single formula. Feature
// mismatches never fail: missing schema features are zero-filled and extra
// computed features dropped.
func (o *Oracle) Score(formula string) (float64, error) {
	comp, err := material.Parse(formula)
	if err != nil {
		return 0, err
	}
	features, err := o.feat.Featurize(comp)
	if err != nil {
		return 0, err
	}
	row, missing, extra := o.model.Align(features)
	if missing > 0 || extra > 0 {
		o.log.Debug("aligned features to model schema",
			"formula", formula, "missing", missing, "extra", extra)
	}
	preds, err := o.model.Predict([][]float64{row})
	if err != nil {
		return 0, err
	}
	return preds[0], nil
}
