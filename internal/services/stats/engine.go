// Package stats computes cointegration and performance statistics for a pair
// of aligned daily close series.
package stats

import (
	"errors"
	"math"

	"PairLab/internal/domain/models"
)

// Engine turns an aligned pair into a StatisticsResult. It holds no state.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Compute derives every pair metric. Any failed precondition aborts the whole
// result; the returned error names the metric, symbols and range.
func (e *Engine) Compute(p models.AlignedPairSeries) (models.StatisticsResult, error) {
	res := models.StatisticsResult{
		SymbolA: p.SymbolA,
		SymbolB: p.SymbolB,
		Range:   p.Range,
		Rows:    p.Len(),
	}
	if p.Len() < 2 {
		return res, annotate(&models.InsufficientDataError{Metric: "pair_statistics", Need: 2, Have: p.Len()}, p)
	}
	a, b := p.ClosesA(), p.ClosesB()
	if !allPositive(a) || !allPositive(b) {
		return res, annotate(&models.DegenerateRegressionError{Metric: "pair_statistics", Precondition: "positive_prices"}, p)
	}

	beta, err := HedgeRatio(a, b)
	if err != nil {
		return res, annotate(err, p)
	}
	spread := Spread(a, b)

	adf, err := ADF(spread)
	if err != nil {
		return res, annotate(err, p)
	}
	hl, err := HalfLifeOf(spread)
	if err != nil {
		return res, annotate(err, p)
	}
	z, err := ZScore(spread)
	if err != nil {
		return res, annotate(err, p)
	}
	crossings := MeanCrossings(spread)
	perf := PerformanceOf(a)

	res.Beta = beta
	res.ADFStat = adf.Stat
	res.PValue = adf.PValue
	res.ADFUsedLag = adf.UsedLag
	res.HalfLife = hl
	res.CurrentZ = z
	res.MeanCrossings = crossings
	if crossings > 0 {
		res.TradeDuration = float64(p.Len()) / float64(crossings)
	}

	res.CumReturn = perf.CumReturn
	res.AnnualReturn = perf.AnnualReturn
	res.Sharpe = perf.Sharpe
	res.Sortino = perf.Sortino
	res.Calmar = perf.Calmar
	res.MaxDrawdown = perf.MaxDrawdown
	res.VaR95 = perf.VaR95
	res.CVaR95 = perf.CVaR95
	res.ProfitFactor = perf.ProfitFactor
	res.MAE = perf.MAE
	res.WinRate = perf.WinRate
	return res, nil
}

func allPositive(v []float64) bool {
	for _, x := range v {
		if !(x > 0) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// annotate fills the pair context into statistical errors.
func annotate(err error, p models.AlignedPairSeries) error {
	var ins *models.InsufficientDataError
	if errors.As(err, &ins) {
		ins.SymbolA, ins.SymbolB, ins.Range = p.SymbolA, p.SymbolB, p.Range
		return ins
	}
	var deg *models.DegenerateRegressionError
	if errors.As(err, &deg) {
		deg.SymbolA, deg.SymbolB, deg.Range = p.SymbolA, p.SymbolB, p.Range
		return deg
	}
	return err
}
