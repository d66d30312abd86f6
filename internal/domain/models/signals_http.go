package models

// Requests for signal HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Symbol        string   `json:"symbol" validate:"required,max=32"`
	CurrentPrice  float64  `json:"current_price" validate:"gte=0"`
	Candles       []Candle `json:"candles" validate:"required,min=1,max=5000"`
	HigherCandles []Candle `json:"higher_candles" validate:"max=5000"`
	Explain       bool     `json:"explain" default:"false"`
}

type SignalRequest struct {
	Symbol string `param:"symbol" query:"symbol" json:"symbol" validate:"required,max=32"`
}

type ScanRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=500,dive,required,max=32"`
	Workers int      `json:"workers" default:"4" validate:"gte=1,lte=64"`
	Async   bool     `json:"async"`
}

// AnalyzeResponse is returned by the analyze endpoint; Rejection is set when
// explain was requested and no signal was produced.
type AnalyzeResponse struct {
	Signal    *Signal    `json:"signal"`
	Rejection *Rejection `json:"rejection,omitempty"`
}
