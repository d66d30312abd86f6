package usecase

import (
	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
)

const advLookback = 20

// LiquidityFilter rejects symbols whose average dollar volume per bar is
// below MinADV. Series without volume pass, since liquidity cannot be judged.
type LiquidityFilter struct {
	MinADV float64
}

var _ domsvc.Filter = (*LiquidityFilter)(nil)

func NewLiquidityFilter(minADV float64) *LiquidityFilter {
	return &LiquidityFilter{MinADV: minADV}
}

func (f *LiquidityFilter) Name() string { return "liquidity" }

func (f *LiquidityFilter) Apply(st *models.AnalysisState) *models.Rejection {
	if f.MinADV <= 0 {
		return nil
	}
	adv, ok := averageDollarVolume(st.Candles, advLookback)
	if !ok {
		return nil
	}
	if adv < f.MinADV {
		return models.Reject(models.StageFilters, models.RejectFiltered,
			"%s: average dollar volume %.0f below %.0f", f.Name(), adv, f.MinADV)
	}
	return nil
}

func averageDollarVolume(candles []models.Candle, n int) (float64, bool) {
	tail := models.Tail(candles, n)
	sum, seen := 0.0, 0
	for _, c := range tail {
		if c.Volume > 0 {
			seen++
		}
		sum += c.Volume * c.Close
	}
	if seen == 0 {
		return 0, false
	}
	return sum / float64(len(tail)), true
}
