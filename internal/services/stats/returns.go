package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily figures.
const TradingDaysPerYear = 252

// Performance holds the return-based metrics of one close series. All
// return-like fields are percentages.
type Performance struct {
	CumReturn    float64
	AnnualReturn float64
	Volatility   float64
	Sharpe       float64
	Sortino      float64
	Calmar       float64
	MaxDrawdown  float64
	VaR95        float64
	CVaR95       float64
	ProfitFactor float64
	MAE          float64
	WinRate      float64
}

// SimpleReturns returns p_t/p_{t−1} − 1 for t ≥ 1.
func SimpleReturns(p []float64) []float64 {
	if len(p) < 2 {
		return nil
	}
	out := make([]float64, len(p)-1)
	for i := 1; i < len(p); i++ {
		out[i-1] = p[i]/p[i-1] - 1
	}
	return out
}

// PerformanceOf computes the return metrics of closes. Ratios whose
// denominator is zero are reported as 0. closes must hold at least two
// positive values.
func PerformanceOf(closes []float64) Performance {
	var perf Performance
	n := len(closes)
	if n < 2 {
		return perf
	}
	rets := SimpleReturns(closes)

	perf.CumReturn = (closes[n-1]/closes[0] - 1) * 100
	perf.AnnualReturn = (math.Pow(1+perf.CumReturn/100, TradingDaysPerYear/float64(n)) - 1) * 100

	perf.Volatility = annualized(rets)
	if perf.Volatility != 0 {
		perf.Sharpe = perf.AnnualReturn / perf.Volatility
	}

	var neg, pos []float64
	for _, r := range rets {
		switch {
		case r < 0:
			neg = append(neg, r)
		case r > 0:
			pos = append(pos, r)
		}
	}
	if dv := annualized(neg); dv != 0 {
		perf.Sortino = perf.AnnualReturn / dv
	}

	perf.MaxDrawdown = maxDrawdown(closes) * 100
	perf.MAE = perf.MaxDrawdown
	if perf.MaxDrawdown != 0 {
		perf.Calmar = math.Abs(perf.AnnualReturn / perf.MaxDrawdown)
	}

	v := Percentile(rets, 5)
	perf.VaR95 = v * 100
	var tail []float64
	for _, r := range rets {
		if r <= v {
			tail = append(tail, r)
		}
	}
	perf.CVaR95 = stat.Mean(tail, nil) * 100

	if loss := math.Abs(floats.Sum(neg)); loss != 0 {
		perf.ProfitFactor = floats.Sum(pos) / loss
	}
	perf.WinRate = float64(len(pos)) / float64(len(rets)) * 100
	return perf
}

// annualized returns the sample deviation of daily returns scaled to a
// yearly percentage, or 0 with fewer than two observations.
func annualized(rets []float64) float64 {
	if len(rets) < 2 {
		return 0
	}
	sd := stat.StdDev(rets, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd * math.Sqrt(TradingDaysPerYear) * 100
}

// maxDrawdown returns min(p_t / max(p_0..p_t) − 1), a value ≤ 0.
func maxDrawdown(p []float64) float64 {
	peak := p[0]
	dd := 0.0
	for _, v := range p {
		if v > peak {
			peak = v
		}
		if d := v/peak - 1; d < dd {
			dd = d
		}
	}
	return dd
}

// Percentile returns the q-th percentile of v by linear interpolation
// between closest ranks.
func Percentile(v []float64, q float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	pos := q / 100 * float64(len(s)-1)
	lo := int(math.Floor(pos))
	if lo >= len(s)-1 {
		return s[len(s)-1]
	}
	frac := pos - float64(lo)
	return s[lo] + frac*(s[lo+1]-s[lo])
}
