package models

import (
	"errors"
	"fmt"
)

var (
	ErrProvider             = errors.New("market data provider failure")
	ErrCacheCorruption      = errors.New("series cache corrupted")
	ErrInvalidRange         = errors.New("invalid date range")
	ErrInsufficientData     = errors.New("insufficient data")
	ErrDegenerateRegression = errors.New("degenerate regression")
	ErrInvalidSymbol        = errors.New("invalid symbol")
	ErrSymbolNotFound       = errors.New("symbol not found")
	ErrSeriesNotFound       = errors.New("series not cached")
)

// ProviderError reports a failed market data call. Temporary is set for
// network failures, throttling and 5xx responses.
type ProviderError struct {
	Symbol    Symbol
	Provider  string
	Temporary bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: fetch %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// CacheCorruptionError reports a cached series that could not be decoded.
// The store treats it as a miss.
type CacheCorruptionError struct {
	Symbol Symbol
	Reason string
	Err    error
}

func (e *CacheCorruptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache for %s corrupted: %s: %v", e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("cache for %s corrupted: %s", e.Symbol, e.Reason)
}

func (e *CacheCorruptionError) Unwrap() error { return e.Err }

func (e *CacheCorruptionError) Is(target error) bool { return target == ErrCacheCorruption }

type InvalidRangeError struct {
	Start  Date
	End    Date
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %s..%s: %s", e.Start, e.End, e.Reason)
}

func (e *InvalidRangeError) Is(target error) bool { return target == ErrInvalidRange }

// InsufficientDataError means a metric needed more observations than the
// aligned series provides.
type InsufficientDataError struct {
	Metric  string
	Need    int
	Have    int
	SymbolA Symbol
	SymbolB Symbol
	Range   DateRange
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s for %s/%s over %s: need %d observations, have %d",
		e.Metric, e.SymbolA, e.SymbolB, e.Range, e.Need, e.Have)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// DegenerateRegressionError means the data violates a numeric precondition
// of a metric, e.g. zero variance or a singular design matrix.
type DegenerateRegressionError struct {
	Metric       string
	Precondition string
	SymbolA      Symbol
	SymbolB      Symbol
	Range        DateRange
}

func (e *DegenerateRegressionError) Error() string {
	return fmt.Sprintf("%s for %s/%s over %s: precondition %s violated",
		e.Metric, e.SymbolA, e.SymbolB, e.Range, e.Precondition)
}

func (e *DegenerateRegressionError) Is(target error) bool { return target == ErrDegenerateRegression }
