package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"PairLab/internal/domain/models"
)

// MinADFObservations is the smallest sample ADF accepts.
const MinADFObservations = 12

// ADFResult is an augmented Dickey-Fuller test with a constant term.
type ADFResult struct {
	Stat    float64
	PValue  float64
	UsedLag int
	NObs    int
}

// ADF tests x for a unit root. The lag order is chosen by AIC over
// 0..maxlag on a common sample, with maxlag = ceil(12·(n/100)^¼) capped at n/2−2.
// Non-finite values are dropped first.
func ADF(x []float64) (ADFResult, error) {
	x = finite(x)
	n := len(x)
	if n < MinADFObservations {
		return ADFResult{}, &models.InsufficientDataError{Metric: "adf", Need: MinADFObservations, Have: n}
	}
	if v := stat.Variance(x, nil); v == 0 || math.IsNaN(v) {
		return ADFResult{}, &models.DegenerateRegressionError{Metric: "adf", Precondition: "nonzero_variance"}
	}

	maxlag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	maxlag = min(maxlag, n/2-2)

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = x[i] - x[i-1]
	}

	bestLag, bestAIC, found := 0, math.Inf(1), false
	for lag := 0; lag <= maxlag; lag++ {
		// Every candidate is fitted on the sample that maxlag leaves.
		fit, err := ols(adfDesign(x, diff, maxlag, lag, true), diff[maxlag:])
		if err != nil {
			continue
		}
		if aic := fit.aic(); !found || aic < bestAIC {
			bestLag, bestAIC, found = lag, aic, true
		}
	}
	if !found {
		return ADFResult{}, &models.DegenerateRegressionError{Metric: "adf", Precondition: "nonsingular_design"}
	}

	fit, err := ols(adfDesign(x, diff, bestLag, bestLag, false), diff[bestLag:])
	if err != nil {
		return ADFResult{}, &models.DegenerateRegressionError{Metric: "adf", Precondition: "nonsingular_design"}
	}
	t, ok := fit.tvalue(0)
	if !ok {
		return ADFResult{}, &models.DegenerateRegressionError{Metric: "adf", Precondition: "imperfect_fit"}
	}
	return ADFResult{Stat: t, PValue: MacKinnonP(t), UsedLag: bestLag, NObs: fit.nobs}, nil
}

// adfDesign builds the regressors for rows t = start..len(diff)−1: the level
// x_t, then diff_{t−1}..diff_{t−lags}, with the constant first or last.
func adfDesign(x, diff []float64, start, lags int, constFirst bool) *mat.Dense {
	rows := len(diff) - start
	cols := lags + 2
	m := mat.NewDense(rows, cols, nil)
	off := 0
	if constFirst {
		off = 1
	}
	for r := 0; r < rows; r++ {
		t := start + r
		if constFirst {
			m.Set(r, 0, 1)
		} else {
			m.Set(r, cols-1, 1)
		}
		m.Set(r, off, x[t])
		for j := 1; j <= lags; j++ {
			m.Set(r, off+j, diff[t-j])
		}
	}
	return m
}

// MacKinnon (2010) response surface for one variable with a constant.
var (
	tauMax      = 2.74
	tauMin      = -18.83
	tauStar     = -1.61
	tauSmallP   = []float64{2.1659, 1.4412, 0.038269}
	tauLargeP   = []float64{1.7339, 0.93202, -0.12745, -0.010368}
	standardCDF = distuv.UnitNormal.CDF
)

// MacKinnonP returns the approximate p-value of an ADF statistic.
func MacKinnonP(tau float64) float64 {
	switch {
	case tau > tauMax:
		return 1
	case tau < tauMin:
		return 0
	}
	coef := tauLargeP
	if tau <= tauStar {
		coef = tauSmallP
	}
	v, p := 0.0, 1.0
	for _, c := range coef {
		v += c * p
		p *= tau
	}
	return standardCDF(v)
}

func finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
