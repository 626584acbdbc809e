// Package oracle scores chemical formulas with a serialized regression
// artifact. Feature extraction happens in-process; the predictor is an
// external artifact loaded once and injected wherever scoring is needed.
package oracle

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"

	"crucible/internal/material"
)

//go:embed elements.json
var elementsJSON []byte

// ElementProperties holds the per-element descriptors the featurizer
// aggregates over a composition.
type ElementProperties struct {
	Number            float64 `json:"number"`
	Weight            float64 `json:"weight"`
	MeltingK          float64 `json:"melting_k"`
	Electronegativity float64 `json:"electronegativity"`
	CovalentRadiusPM  float64 `json:"covalent_radius_pm"`
	Row               float64 `json:"row"`
	Group             float64 `json:"group"`
	NValence          float64 `json:"n_valence"`
}

var propertyOrder = []string{
	"AtomicNumber",
	"AtomicWeight",
	"MeltingPoint",
	"Electronegativity",
	"CovalentRadius",
	"Row",
	"Group",
	"NValence",
}

var statOrder = []string{"minimum", "maximum", "range", "mean", "avg_dev", "mode"}

func (p ElementProperties) value(property string) float64 {
	switch property {
	case "AtomicNumber":
		return p.Number
	case "AtomicWeight":
		return p.Weight
	case "MeltingPoint":
		return p.MeltingK
	case "Electronegativity":
		return p.Electronegativity
	case "CovalentRadius":
		return p.CovalentRadiusPM
	case "Row":
		return p.Row
	case "Group":
		return p.Group
	case "NValence":
		return p.NValence
	default:
		return 0
	}
}

// Featurizer turns a composition into named element-property statistics.
// It is immutable after construction and safe for concurrent use.
type Featurizer struct {
	table map[string]ElementProperties
}

// NewFeaturizer parses the embedded element table.
func NewFeaturizer() (*Featurizer, error) {
	table := make(map[string]ElementProperties)
	if err := json.Unmarshal(elementsJSON, &table); err != nil {
		return nil, fmt.Errorf("parse element table: %w", err)
	}
	return &Featurizer{table: table}, nil
}

// FeatureName builds the canonical name for a statistic over a property,
// e.g. "ElemProp mean Electronegativity".
func FeatureName(stat, property string) string {
	return "ElemProp " + stat + " " + property
}

// Featurize computes, for every element property, the minimum, maximum,
// range, stoichiometry-weighted mean, weighted average deviation and mode
// (the property of the most abundant element) over the composition.
func (f *Featurizer) Featurize(c material.Composition) (map[string]float64, error) {
	counts := c.Stoichiometry()
	props := make([]ElementProperties, len(counts))
	weights := make([]float64, len(counts))
	var total float64
	for i, ec := range counts {
		p, ok := f.table[ec.Symbol]
		if !ok {
			return nil, fmt.Errorf("element %q not in property table", ec.Symbol)
		}
		props[i] = p
		weights[i] = ec.Count
		total += ec.Count
	}
	for i := range weights {
		weights[i] /= total
	}

	modeIdx := 0
	for i := 1; i < len(weights); i++ {
		if weights[i] > weights[modeIdx] {
			modeIdx = i
		}
	}

	features := make(map[string]float64, len(propertyOrder)*len(statOrder))
	for _, property := range propertyOrder {
		minV := math.Inf(1)
		maxV := math.Inf(-1)
		var mean float64
		for i, p := range props {
			v := p.value(property)
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
			mean += weights[i] * v
		}
		var avgDev float64
		for i, p := range props {
			avgDev += weights[i] * math.Abs(p.value(property)-mean)
		}
		features[FeatureName("minimum", property)] = minV
		features[FeatureName("maximum", property)] = maxV
		features[FeatureName("range", property)] = maxV - minV
		features[FeatureName("mean", property)] = mean
		features[FeatureName("avg_dev", property)] = avgDev
		features[FeatureName("mode", property)] = props[modeIdx].value(property)
	}
	return features, nil
}

// FeatureNames returns every name Featurize can produce, in a stable order.
func (f *Featurizer) FeatureNames() []string {
	names := make([]string, 0, len(propertyOrder)*len(statOrder))
	for _, property := range propertyOrder {
		for _, stat := range statOrder {
			names = append(names, FeatureName(stat, property))
		}
	}
	return names
}
