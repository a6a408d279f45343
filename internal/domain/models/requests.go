package models

// Requests for the pair HTTP endpoints. Dates stay as text so the handler can
// report range errors with the values the caller sent.

type PairRequest struct {
	SymbolA string `query:"a" json:"a" validate:"required,max=20"`
	SymbolB string `query:"b" json:"b" validate:"required,max=20"`
	Start   string `query:"start" json:"start" default:"2016-01-04" validate:"datetime=2006-01-02"`
	End     string `query:"end" json:"end" validate:"omitempty,datetime=2006-01-02"`
	Format  string `query:"format" json:"format" default:"json" validate:"oneof=json csv"`
}

type SymbolRequest struct {
	Symbol string `param:"symbol" validate:"required,max=20"`
}

// SymbolStatus is the answer of a symbol check. Error is set when the
// provider could not confirm either way.
type SymbolStatus struct {
	Symbol string `json:"symbol"`
	Valid  bool   `json:"valid"`
	Error  string `json:"error,omitempty"`
}
