package models

import "encoding/json"

// HalfLife is the mean-reversion half-life in trading days. It is not
// applicable when the spread does not revert (non-negative AR slope).
type HalfLife struct {
	Days       float64
	Applicable bool
}

// NotApplicable is the half-life of a non mean-reverting spread.
var NotApplicable = HalfLife{}

func (h HalfLife) MarshalJSON() ([]byte, error) {
	if !h.Applicable {
		return []byte("null"), nil
	}
	return json.Marshal(h.Days)
}

func (h *HalfLife) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*h = NotApplicable
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*h = HalfLife{Days: v, Applicable: true}
	return nil
}

// StatisticsResult holds every pair metric derived from one AlignedPairSeries.
// Return-like values are in percent.
type StatisticsResult struct {
	SymbolA Symbol    `json:"symbol_a"`
	SymbolB Symbol    `json:"symbol_b"`
	Range   DateRange `json:"range"`
	Rows    int       `json:"rows"`

	CumReturn     float64  `json:"cum_return"`
	AnnualReturn  float64  `json:"annual_return"`
	Sharpe        float64  `json:"sharpe"`
	Sortino       float64  `json:"sortino"`
	Calmar        float64  `json:"calmar"`
	MaxDrawdown   float64  `json:"max_drawdown"`
	VaR95         float64  `json:"var_95"`
	CVaR95        float64  `json:"cvar_95"`
	ProfitFactor  float64  `json:"profit_factor"`
	MAE           float64  `json:"mae"`
	ADFStat       float64  `json:"adf_stat"`
	PValue        float64  `json:"p_value"`
	Beta          float64  `json:"beta"`
	HalfLife      HalfLife `json:"half_life"`
	MeanCrossings int      `json:"mean_crossings"`
	WinRate       float64  `json:"win_rate"`
	TradeDuration float64  `json:"trade_duration"`
	CurrentZ      float64  `json:"current_z"`

	ADFUsedLag int `json:"adf_used_lag"`
}
