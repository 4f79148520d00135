package valuation

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Quantile returns the empirical p-quantile of the non missing values.
func Quantile(values []float64, p float64) float64 {
	sorted := dropNaN(values)
	if len(sorted) == 0 {
		return math.NaN()
	}
	slices.Sort(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Regression is a simple least squares fit y = Alpha + Beta·x.
type Regression struct {
	Alpha, Beta float64
	RSquared    float64
	N           int
}

// Predict returns the fitted value at x.
func (r Regression) Predict(x float64) float64 { return r.Alpha + r.Beta*x }

// LinearRegression fits y against x on the pairs where both are present.
func LinearRegression(x, y []float64) (Regression, error) {
	if len(x) != len(y) {
		return Regression{}, computeErr("regression", "%d x values for %d y values", len(x), len(y))
	}
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs, ys = append(xs, x[i]), append(ys, y[i])
	}
	if len(xs) < 3 {
		return Regression{}, computeErr("regression", "%d points, need at least 3", len(xs))
	}
	if stat.Variance(xs, nil) == 0 {
		return Regression{}, computeErr("regression", "constant regressor")
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Regression{
		Alpha:    alpha,
		Beta:     beta,
		RSquared: stat.RSquared(xs, ys, nil, alpha, beta),
		N:        len(xs),
	}, nil
}
