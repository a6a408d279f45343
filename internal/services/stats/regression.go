package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"PairLab/internal/domain/models"
)

// HedgeRatio returns the OLS slope of a regressed on b with an intercept.
func HedgeRatio(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &models.DegenerateRegressionError{Metric: "beta", Precondition: "equal_length"}
	}
	if len(a) < 2 {
		return 0, &models.InsufficientDataError{Metric: "beta", Need: 2, Have: len(a)}
	}
	if v := stat.Variance(b, nil); v == 0 || math.IsNaN(v) {
		return 0, &models.DegenerateRegressionError{Metric: "beta", Precondition: "nonzero_variance"}
	}
	_, beta := stat.LinearRegression(b, a, nil, false)
	return beta, nil
}

// olsFit is an ordinary least squares fit of y on the columns of X.
type olsFit struct {
	coef []float64
	ssr  float64
	nobs int
	k    int
	xtxi *mat.Dense
}

// ols fits y = X·coef. It fails when X'X cannot be inverted.
func ols(x *mat.Dense, y []float64) (*olsFit, error) {
	n, k := x.Dims()
	if n != len(y) || n < k {
		return nil, errSingular
	}
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return nil, errSingular
	}
	yv := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)
	var b mat.VecDense
	b.MulVec(&inv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &b)
	ssr := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}
	coef := make([]float64, k)
	for i := range coef {
		coef[i] = b.AtVec(i)
	}
	return &olsFit{coef: coef, ssr: ssr, nobs: n, k: k, xtxi: &inv}, nil
}

// aic is the Akaike criterion of a Gaussian OLS fit.
func (f *olsFit) aic() float64 {
	n := float64(f.nobs)
	llf := -n / 2 * (math.Log(2*math.Pi) + math.Log(f.ssr/n) + 1)
	return -2*llf + 2*float64(f.k)
}

// tvalue returns the t statistic of coefficient i.
func (f *olsFit) tvalue(i int) (float64, bool) {
	df := f.nobs - f.k
	if df <= 0 || f.ssr <= 0 {
		return 0, false
	}
	se := math.Sqrt(f.ssr / float64(df) * f.xtxi.At(i, i))
	if se == 0 || math.IsNaN(se) {
		return 0, false
	}
	return f.coef[i] / se, true
}

var errSingular = errors.New("singular design matrix")
