package valuation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultLambda is the Hodrick-Prescott smoothing parameter for quarterly data.
const DefaultLambda = 1600

// HPTrend returns the Hodrick-Prescott trend component of y.
//
// It solves (I + λ DᵀD) τ = y where D is the second difference operator. The
// system is symmetric positive definite so a Cholesky factorization is used.
func HPTrend(y []float64, lambda float64) ([]float64, error) {
	n := len(y)
	if n == 0 {
		return nil, computeErr("hp trend", "empty series")
	}
	if n < 3 || lambda == 0 {
		// no second difference to penalize.
		return append([]float64(nil), y...), nil
	}

	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		a.SetSym(i, i, 1)
	}
	// accumulate λ DᵀD, one row of D (1, -2, 1) at a time.
	coef := [3]float64{1, -2, 1}
	for r := 0; r < n-2; r++ {
		for i := 0; i < 3; i++ {
			for j := i; j < 3; j++ {
				v := a.At(r+i, r+j) + lambda*coef[i]*coef[j]
				a.SetSym(r+i, r+j, v)
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, computeErr("hp trend", "matrix is not positive definite")
	}
	tau := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(tau, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		return nil, fmt.Errorf("hp trend: %w", err)
	}
	return tau.RawVector().Data, nil
}

// PerpetualGrowth estimates the long run growth rate of a growth series: the
// Hodrick-Prescott trend of the valid observations, then the median of the
// trend over the trailing window.
func PerpetualGrowth(growth *Series, lambda float64, window int) (float64, error) {
	values := growth.Valid().Floats()
	if len(values) == 0 {
		return 0, computeErr("perpetual growth", "no growth observation")
	}
	trend, err := HPTrend(values, lambda)
	if err != nil {
		return 0, err
	}
	if window > 0 && window < len(trend) {
		trend = trend[len(trend)-window:]
	}
	g := median(trend)
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return 0, computeErr("perpetual growth", "trend is not finite")
	}
	return g, nil
}
