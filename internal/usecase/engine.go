package usecase

import (
	"time"

	"github.com/google/uuid"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/services/channel"
	"FinSignal/internal/services/features"
	"FinSignal/internal/services/indicators"
	"FinSignal/internal/services/mtf"
	"FinSignal/internal/services/patterns"
	"FinSignal/internal/services/regime"
	"FinSignal/internal/services/scoring"
	"FinSignal/internal/services/setup"
	"FinSignal/pkg/config"
	"FinSignal/pkg/logger"
)

// Engine runs the analysis pipeline for one symbol at a time. It holds no
// mutable state after construction and is safe for concurrent use.
type Engine struct {
	cfg      *config.AnalysisConfig
	channels domsvc.ChannelDetector
	patterns domsvc.PatternRecognizer
	regime   domsvc.RegimeClassifier
	mtf      domsvc.MTFAnalyzer
	setups   domsvc.SetupBuilder
	scorer   domsvc.Scorer
	filters  []domsvc.Filter
	log      *logger.Logger
	now      func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

func WithChannelDetector(d domsvc.ChannelDetector) EngineOption {
	return func(e *Engine) { e.channels = d }
}

func WithPatternRecognizer(r domsvc.PatternRecognizer) EngineOption {
	return func(e *Engine) { e.patterns = r }
}

func WithRegimeClassifier(c domsvc.RegimeClassifier) EngineOption {
	return func(e *Engine) { e.regime = c }
}

func WithMTFAnalyzer(a domsvc.MTFAnalyzer) EngineOption {
	return func(e *Engine) { e.mtf = a }
}

func WithSetupBuilder(b domsvc.SetupBuilder) EngineOption {
	return func(e *Engine) { e.setups = b }
}

func WithScorer(s domsvc.Scorer) EngineOption {
	return func(e *Engine) { e.scorer = s }
}

// WithFilters appends pre-setup filters; they run in order.
func WithFilters(f ...domsvc.Filter) EngineOption {
	return func(e *Engine) { e.filters = append(e.filters, f...) }
}

func WithLogger(l *logger.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock sets the time source for AnalyzedAt and ExpiresAt.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires the default components for cfg. cfg must already be
// validated and is never modified.
func NewEngine(cfg *config.AnalysisConfig, opts ...EngineOption) *Engine {
	detector := channel.NewDetector(cfg.Channel)
	e := &Engine{
		cfg:      cfg,
		channels: detector,
		patterns: patterns.NewRecognizer(cfg.Patterns),
		regime:   regime.NewClassifier(features.BarsPerYear(cfg.Intraday(), cfg.AssetType == config.AssetCrypto)),
		mtf:      mtf.NewAnalyzer(detector),
		setups:   setup.NewBuilder(cfg),
		scorer:   scoring.NewScorer(cfg),
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the analysis config the engine was built with.
func (e *Engine) Config() *config.AnalysisConfig { return e.cfg }

// Outcome is the result of one analysis: a signal, or the rejection that
// stopped the pipeline. Score is set whenever scoring ran.
type Outcome struct {
	Signal    *models.Signal
	Rejection *models.Rejection
	Score     *models.OpportunityScore
}

// Analyze returns a signal or nil. Rejections are not errors.
func (e *Engine) Analyze(symbol string, candles []models.Candle, currentPrice float64, higher []models.Candle) *models.Signal {
	return e.Evaluate(symbol, candles, currentPrice, higher).Signal
}

// Evaluate runs the pipeline and reports why no signal was produced.
// higher is the optional higher timeframe series; pass nil to skip it.
func (e *Engine) Evaluate(symbol string, candles []models.Candle, currentPrice float64, higher []models.Candle) Outcome {
	out := e.evaluate(symbol, candles, currentPrice, higher)
	if out.Rejection != nil {
		e.log.Debug("analysis rejected",
			logger.String("symbol", symbol),
			logger.String("stage", string(out.Rejection.Stage)),
			logger.String("reason", string(out.Rejection.Reason)),
			logger.String("detail", out.Rejection.Detail),
		)
	}
	return out
}

func (e *Engine) evaluate(symbol string, candles []models.Candle, currentPrice float64, higher []models.Candle) Outcome {
	if len(candles) < e.cfg.MinCandles {
		return reject(models.Reject(models.StageValidate, models.RejectInsufficientData,
			"%d candles, need %d", len(candles), e.cfg.MinCandles))
	}
	if err := models.ValidateSeries(candles); err != nil {
		return reject(models.Reject(models.StageValidate, models.RejectInvalidCandles, "%v", err))
	}
	if currentPrice <= 0 || !models.Finite(currentPrice) {
		currentPrice = candles[len(candles)-1].Close
	}

	st := &models.AnalysisState{
		Symbol:       symbol,
		Candles:      candles,
		CurrentPrice: currentPrice,
	}
	st.Indicators = indicators.Compute(candles, e.cfg.Intraday())
	st.Channel = e.channels.Detect(candles)
	st.Regime = e.regime.Classify(candles, &st.Indicators)

	if len(higher) > 0 {
		if err := models.ValidateSeries(higher); err != nil {
			e.log.Debug("higher timeframe ignored", logger.String("symbol", symbol), logger.Error(err))
		} else {
			st.MTF = e.mtf.Analyze(st.Channel, higher, currentPrice)
		}
	}

	st.Patterns = e.patterns.Recognize(candles, &st.Regime)
	if len(st.Patterns) == 0 {
		return reject(models.Reject(models.StagePatterns, models.RejectNoPattern, "no pattern on the last bars"))
	}

	for _, f := range e.filters {
		if rej := f.Apply(st); rej != nil {
			return reject(rej)
		}
	}

	ts, rej := e.setups.Build(st)
	if rej != nil {
		return reject(rej)
	}
	st.Setup = ts

	score := e.scorer.Score(st)
	if st.MTF != nil {
		adjusted, delta := mtf.Adjust(score.Total, st.MTF)
		e.log.Debug("higher timeframe adjustment",
			logger.String("symbol", symbol),
			logger.Float64("base", score.Total),
			logger.Float64("delta", delta),
			logger.String("alignment", string(st.MTF.TrendAlignment)),
		)
		score = scoring.Adjusted(score, adjusted)
	}

	if score.Total < e.cfg.MinScore {
		return Outcome{
			Rejection: models.Reject(models.StageThreshold, models.RejectBelowMinScore,
				"score %.1f below %.1f", score.Total, e.cfg.MinScore),
			Score: &score,
		}
	}

	return Outcome{Signal: e.signal(st, score), Score: &score}
}

func (e *Engine) signal(st *models.AnalysisState, score models.OpportunityScore) *models.Signal {
	ts := st.Setup
	now := e.now().UTC()
	sig := &models.Signal{
		ID:         uuid.NewString(),
		Symbol:     st.Symbol,
		Direction:  ts.Direction,
		Entry:      ts.Entry,
		StopLoss:   ts.StopLoss,
		Target:     ts.Target,
		RiskReward: ts.RiskReward,
		Score:      score.Total,
		Confidence: score.Level,
		Rationale:  buildRationale(st, score),
		Patterns:   append([]models.PatternResult(nil), st.Patterns...),
		Regime:     st.Regime,
		Metadata: models.SignalMetadata{
			ChannelStatus:       st.Channel.Status,
			HasChannel:          st.Channel.HasChannel,
			VolumeRatio:         st.Indicators.VolumeRatio,
			VolumeConfirmed:     volumeConfirmed(st.Indicators),
			Tier:                ts.SetupTier,
			TierScore:           ts.TierScore,
			TierCriteria:        append([]string(nil), ts.TierCriteria...),
			ExpectedHoldMinutes: ts.ExpectedHoldMinutes,
			MTFAdjustment:       score.MTFAdjustment,
			Components:          score.Components,
			AssetType:           string(e.cfg.AssetType),
			Timeframe:           string(e.cfg.Timeframe),
		},
		AnalyzedAt: now,
	}
	if st.Channel.HasChannel {
		sig.Metadata.Support = st.Channel.Support
		sig.Metadata.Resistance = st.Channel.Resistance
	}
	if st.MTF != nil {
		sig.Metadata.MTFAlignment = st.MTF.TrendAlignment
		sig.Metadata.ConfluenceZones = len(st.MTF.ConfluenceZones)
	}

	ttl := e.cfg.SignalTTL
	if ttl <= 0 {
		ttl = time.Duration(ts.ExpectedHoldMinutes) * time.Minute
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		sig.ExpiresAt = &exp
	}
	return sig
}

const volumeConfirmRatio = 1.2

func volumeConfirmed(ind models.IndicatorSnapshot) bool {
	return ind.HasVolume && ind.VolumeRatio >= volumeConfirmRatio
}

func reject(r *models.Rejection) Outcome {
	return Outcome{Rejection: r}
}
