package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const ModelSchemaVersion = 1

// ErrMissingFeatureNames marks an artifact that cannot be aligned against.
var ErrMissingFeatureNames = errors.New("model artifact lacks feature names")

const (
	KindLinear = "linear"
	KindForest = "forest"
)

// Tree is a binary regression tree in flat-array form. A negative left child
// marks a leaf; Value carries the leaf prediction at the leaf index.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

func (t Tree) predict(row []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] >= 0 {
		if row[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

func (t Tree) validate() error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("tree arrays have inconsistent lengths")
	}
	for i := 0; i < n; i++ {
		if t.ChildrenLeft[i] >= n || t.ChildrenRight[i] >= n {
			return fmt.Errorf("tree node %d points past %d nodes", i, n)
		}
		if (t.ChildrenLeft[i] < 0) != (t.ChildrenRight[i] < 0) {
			return fmt.Errorf("tree node %d mixes leaf and split children", i)
		}
	}
	return nil
}

// Model is a deserialized predictor artifact: either a linear model or an
// averaged tree ensemble over a fixed named feature schema.
type Model struct {
	SchemaVersion int       `json:"schema_version"`
	Name          string    `json:"name"`
	Target        string    `json:"target"`
	Kind          string    `json:"kind"`
	FeatureNames  []string  `json:"feature_names"`
	Intercept     float64   `json:"intercept,omitempty"`
	Coefficients  []float64 `json:"coefficients,omitempty"`
	Trees         []Tree    `json:"trees,omitempty"`

	index map[string]int
}

// LoadModel reads and validates a model artifact from disk.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return ParseModel(data)
}

// ParseModel decodes and validates a model artifact.
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	m.index = make(map[string]int, len(m.FeatureNames))
	for i, name := range m.FeatureNames {
		m.index[name] = i
	}
	return &m, nil
}

func (m *Model) validate() error {
	if m.SchemaVersion != ModelSchemaVersion {
		return fmt.Errorf("model schema version %d, want %d", m.SchemaVersion, ModelSchemaVersion)
	}
	if len(m.FeatureNames) == 0 {
		return ErrMissingFeatureNames
	}
	switch m.Kind {
	case KindLinear:
		if len(m.Coefficients) != len(m.FeatureNames) {
			return fmt.Errorf("linear model has %d coefficients for %d features",
				len(m.Coefficients), len(m.FeatureNames))
		}
	case KindForest:
		if len(m.Trees) == 0 {
			return errors.New("forest model has no trees")
		}
		for i, tree := range m.Trees {
			if err := tree.validate(); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			for _, f := range tree.Feature {
				if f >= len(m.FeatureNames) {
					return fmt.Errorf("tree %d splits on feature %d, schema has %d", i, f, len(m.FeatureNames))
				}
			}
		}
	default:
		return fmt.Errorf("unsupported model kind: %q", m.Kind)
	}
	return nil
}

// Align orders a named feature set into the model's schema. Missing features
// are zero-filled and extra features dropped; the counts of both are
// returned so callers can surface the mismatch.
func (m *Model) Align(features map[string]float64) (row []float64, missing, extra int) {
	row = make([]float64, len(m.FeatureNames))
	matched := 0
	for i, name := range m.FeatureNames {
		v, ok := features[name]
		if !ok {
			missing++
			continue
		}
		row[i] = v
		matched++
	}
	extra = len(features) - matched
	return row, missing, extra
}

// Predict evaluates the model over aligned feature rows.
func (m *Model) Predict(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(m.FeatureNames) {
			return nil, fmt.Errorf("row %d has %d features, schema has %d", i, len(row), len(m.FeatureNames))
		}
		switch m.Kind {
		case KindLinear:
			v := m.Intercept
			for j, c := range m.Coefficients {
				v += c * row[j]
			}
			out[i] = v
		case KindForest:
			var sum float64
			for _, tree := range m.Trees {
				sum += tree.predict(row)
			}
			out[i] = sum / float64(len(m.Trees))
		}
	}
	return out, nil
}
