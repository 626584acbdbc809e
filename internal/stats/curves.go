package stats

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// YieldCurvePoint is one aggregated step of a protocol's yield curve.
type YieldCurvePoint struct {
	Step     int     `json:"step"`
	Episodes int     `json:"episodes"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// BuildYieldCurve reduces per-episode yield series column by column.
// Episodes terminate at different steps, so each point records how many
// were still running; a step nobody reached ends the curve.
func BuildYieldCurve(series [][]float64) []YieldCurvePoint {
	points := make([]YieldCurvePoint, 0, 128)
	for step := 0; ; step++ {
		values := make([]float64, 0, len(series))
		for _, episode := range series {
			if step < len(episode) {
				values = append(values, episode[step])
			}
		}
		if len(values) == 0 {
			return points
		}
		point := YieldCurvePoint{
			Step:     step,
			Episodes: len(values),
			Mean:     stat.Mean(values, nil),
			Min:      floats.Min(values),
			Max:      floats.Max(values),
		}
		if len(values) > 1 {
			point.Std = stat.StdDev(values, nil)
		}
		points = append(points, point)
	}
}

// WriteYieldCurves writes every protocol's curve into one CSV, protocols in
// sorted order.
func WriteYieldCurves(runDir string, curves map[string][]YieldCurvePoint) error {
	path := filepath.Join(runDir, "yield_curves.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	protocols := make([]string, 0, len(curves))
	for protocol := range curves {
		protocols = append(protocols, protocol)
	}
	sort.Strings(protocols)

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"protocol", "step", "episodes", "mean_yield", "std_yield", "min_yield", "max_yield"}); err != nil {
		return err
	}
	for _, protocol := range protocols {
		for _, point := range curves[protocol] {
			if err := writer.Write([]string{
				protocol,
				strconv.Itoa(point.Step),
				strconv.Itoa(point.Episodes),
				strconv.FormatFloat(point.Mean, 'f', -1, 64),
				strconv.FormatFloat(point.Std, 'f', -1, 64),
				strconv.FormatFloat(point.Min, 'f', -1, 64),
				strconv.FormatFloat(point.Max, 'f', -1, 64),
			}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
