package service

import "FinSignal/internal/domain/models"

// ChannelDetector finds the support/resistance channel of a candle window.
type ChannelDetector interface {
	Detect(candles []models.Candle) models.ChannelResult
}

// PatternRecognizer returns every pattern found, sorted by confidence
// descending. An empty result is a normal outcome.
type PatternRecognizer interface {
	Recognize(candles []models.Candle, regime *models.RegimeAnalysis) []models.PatternResult
}

// RegimeClassifier classifies the market state of a window. A nil snapshot
// makes the classifier compute its own indicators.
type RegimeClassifier interface {
	Classify(candles []models.Candle, ind *models.IndicatorSnapshot) models.RegimeAnalysis
}

// MTFAnalyzer compares the trading timeframe channel with a higher timeframe.
// It returns nil when the higher series is too short.
type MTFAnalyzer interface {
	Analyze(lower models.ChannelResult, higher []models.Candle, currentPrice float64) *models.MultiTimeframeAnalysis
}

// SetupBuilder prices a trade or explains why none exists.
type SetupBuilder interface {
	Build(st *models.AnalysisState) (*models.TradeSetup, *models.Rejection)
}

// Scorer computes the weighted opportunity score of a priced setup.
type Scorer interface {
	Score(st *models.AnalysisState) models.OpportunityScore
}

// Filter is a pre-setup gate. A nil rejection lets the analysis continue.
type Filter interface {
	Name() string
	Apply(st *models.AnalysisState) *models.Rejection
}
