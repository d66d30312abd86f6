package scoring

import "FinSignal/internal/domain/models"

// patternScores is indexed by PatternType. A keyed literal zero-fills
// omitted types, so TestPatternTableCoversEveryType guards every entry.
var patternScores = [models.NumPatternTypes]float64{
	models.PatternNone:                    20,
	models.PatternBullishEngulfing:        85,
	models.PatternBearishEngulfing:        85,
	models.PatternHammer:                  70,
	models.PatternShootingStar:            65,
	models.PatternDoji:                    45,
	models.PatternPiercingLine:            70,
	models.PatternDarkCloudCover:          70,
	models.PatternDoubleTop:               80,
	models.PatternDoubleBottom:            82,
	models.PatternHeadAndShoulders:        85,
	models.PatternInverseHeadAndShoulders: 88,
	models.PatternBullFlag:                80,
	models.PatternBearFlag:                78,
	models.PatternAscendingTriangle:       80,
	models.PatternDescendingTriangle:      76,
	models.PatternSymmetricalTriangle:     60,
	models.PatternCupAndHandle:            82,
}

// PatternBase returns the reliability score of a pattern type.
func PatternBase(p models.PatternType) float64 {
	if !p.Valid() {
		return patternScores[models.PatternNone]
	}
	return patternScores[p]
}

type step struct {
	min   float64
	score float64
}

var volumeSteps = []step{
	{2.0, 100},
	{1.5, 85},
	{1.2, 70},
	{1.0, 55},
	{0.8, 40},
}

var riskRewardSteps = []step{
	{3.5, 100},
	{3.0, 90},
	{2.5, 80},
	{2.0, 70},
	{1.5, 60},
	{1.0, 35},
}

func stepScore(steps []step, v, floor float64) float64 {
	for _, s := range steps {
		if v >= s.min {
			return s.score
		}
	}
	return floor
}
