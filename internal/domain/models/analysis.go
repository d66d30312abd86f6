package models

// AnalysisState carries the outputs of earlier stages to the later ones
// within a single analysis. It is never shared between analyses.
type AnalysisState struct {
	Symbol       string
	Candles      []Candle
	CurrentPrice float64
	Indicators   IndicatorSnapshot
	Channel      ChannelResult
	Regime       RegimeAnalysis
	MTF          *MultiTimeframeAnalysis
	Patterns     []PatternResult
	Setup        *TradeSetup
}
