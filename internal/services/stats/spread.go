package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"PairLab/internal/domain/models"
)

// Spread returns a − b element-wise.
func Spread(a, b []float64) []float64 {
	n := min(len(a), len(b))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] - b[i]
	}
	return out
}

// ZScore returns (s_last − mean(s)) / std(s) using the sample deviation.
func ZScore(s []float64) (float64, error) {
	if len(s) < 2 {
		return 0, &models.InsufficientDataError{Metric: "current_z", Need: 2, Have: len(s)}
	}
	mean, std := stat.MeanStdDev(s, nil)
	if std == 0 || math.IsNaN(std) {
		return 0, &models.DegenerateRegressionError{Metric: "current_z", Precondition: "nonzero_variance"}
	}
	return (s[len(s)-1] - mean) / std, nil
}

// MeanCrossings counts how often s changes side of its mean. A value exactly
// on the mean counts as above it.
func MeanCrossings(s []float64) int {
	if len(s) < 2 {
		return 0
	}
	mean := stat.Mean(s, nil)
	n := 0
	prev := math.Signbit(s[0] - mean)
	for _, v := range s[1:] {
		cur := math.Signbit(v - mean)
		if cur != prev {
			n++
		}
		prev = cur
	}
	return n
}

// HalfLifeOf regresses Δs_t on s_{t−1} with an intercept and returns −ln2/φ
// for a reverting slope φ < 0.
func HalfLifeOf(s []float64) (models.HalfLife, error) {
	if len(s) < 3 {
		return models.NotApplicable, &models.InsufficientDataError{Metric: "half_life", Need: 3, Have: len(s)}
	}
	lag := s[:len(s)-1]
	delta := make([]float64, len(s)-1)
	for i := 1; i < len(s); i++ {
		delta[i-1] = s[i] - s[i-1]
	}
	if v := stat.Variance(lag, nil); v == 0 || math.IsNaN(v) {
		return models.NotApplicable, &models.DegenerateRegressionError{Metric: "half_life", Precondition: "nonzero_variance"}
	}
	_, phi := stat.LinearRegression(lag, delta, nil, false)
	if phi >= 0 || math.IsNaN(phi) {
		return models.NotApplicable, nil
	}
	return models.HalfLife{Days: -math.Ln2 / phi, Applicable: true}, nil
}
