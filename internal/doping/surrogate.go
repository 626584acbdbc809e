package doping

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// surrogate is a quadratic ridge model over the 3-dimensional loading
// space, fit by normal equations. Predictive uncertainty is the training
// residual RMS damped by distance to the nearest observed point, so it
// vanishes exactly where the model has already looked.
type surrogate struct {
	theta     *mat.VecDense
	points    [][]float64
	residual  float64
	bandwidth float64
}

const surrogateBandwidth = 0.25

// quadFeatures lifts a loading into [1, x, x², cross terms].
func quadFeatures(x []float64) []float64 {
	return []float64{
		1,
		x[0], x[1], x[2],
		x[0] * x[0], x[1] * x[1], x[2] * x[2],
		x[0] * x[1], x[0] * x[2], x[1] * x[2],
	}
}

const quadDim = 10

func fitSurrogate(points [][]float64, values []float64, ridge float64) (*surrogate, error) {
	if len(points) == 0 || len(points) != len(values) {
		return nil, errors.New("surrogate needs matching points and values")
	}
	n := len(points)

	phi := mat.NewDense(n, quadDim, nil)
	for i, point := range points {
		phi.SetRow(i, quadFeatures(point))
	}
	y := mat.NewVecDense(n, values)

	var gram mat.Dense
	gram.Mul(phi.T(), phi)
	for i := 0; i < quadDim; i++ {
		gram.Set(i, i, gram.At(i, i)+ridge)
	}
	var rhs mat.VecDense
	rhs.MulVec(phi.T(), y)

	theta := mat.NewVecDense(quadDim, nil)
	if err := theta.SolveVec(&gram, &rhs); err != nil {
		return nil, fmt.Errorf("solve normal equations: %w", err)
	}

	var sumSq float64
	for i, point := range points {
		pred := mat.Dot(mat.NewVecDense(quadDim, quadFeatures(point)), theta)
		diff := values[i] - pred
		sumSq += diff * diff
	}
	return &surrogate{
		theta:     theta,
		points:    points,
		residual:  math.Sqrt(sumSq / float64(n)),
		bandwidth: surrogateBandwidth,
	}, nil
}

// predict returns the model mean and damped uncertainty at x.
func (s *surrogate) predict(x []float64) (mu, sigma float64) {
	mu = mat.Dot(mat.NewVecDense(quadDim, quadFeatures(x)), s.theta)

	nearest := math.Inf(1)
	for _, point := range s.points {
		var d float64
		for i := range point {
			diff := x[i] - point[i]
			d += diff * diff
		}
		if d < nearest {
			nearest = d
		}
	}
	scale := math.Sqrt(nearest) / s.bandwidth
	if scale > 1 {
		scale = 1
	}
	return mu, s.residual * scale
}
