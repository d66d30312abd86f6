package models

import (
	"encoding/json"
	"fmt"
)

// PatternType enumerates every recognised pattern. The order is stable and
// used as a tie-break when sorting patterns of equal confidence.
type PatternType int

const (
	PatternNone PatternType = iota

	// candlestick
	PatternBullishEngulfing
	PatternBearishEngulfing
	PatternHammer
	PatternShootingStar
	PatternDoji
	PatternPiercingLine
	PatternDarkCloudCover

	// chart
	PatternDoubleTop
	PatternDoubleBottom
	PatternHeadAndShoulders
	PatternInverseHeadAndShoulders
	PatternBullFlag
	PatternBearFlag
	PatternAscendingTriangle
	PatternDescendingTriangle
	PatternSymmetricalTriangle
	PatternCupAndHandle

	NumPatternTypes
)

var patternNames = [NumPatternTypes]string{
	PatternNone:                    "none",
	PatternBullishEngulfing:        "bullish_engulfing",
	PatternBearishEngulfing:        "bearish_engulfing",
	PatternHammer:                  "hammer",
	PatternShootingStar:            "shooting_star",
	PatternDoji:                    "doji",
	PatternPiercingLine:            "piercing_line",
	PatternDarkCloudCover:          "dark_cloud_cover",
	PatternDoubleTop:               "double_top",
	PatternDoubleBottom:            "double_bottom",
	PatternHeadAndShoulders:        "head_and_shoulders",
	PatternInverseHeadAndShoulders: "inverse_head_and_shoulders",
	PatternBullFlag:                "bull_flag",
	PatternBearFlag:                "bear_flag",
	PatternAscendingTriangle:       "ascending_triangle",
	PatternDescendingTriangle:      "descending_triangle",
	PatternSymmetricalTriangle:     "symmetrical_triangle",
	PatternCupAndHandle:            "cup_and_handle",
}

func (p PatternType) String() string {
	if p < 0 || p >= NumPatternTypes {
		return fmt.Sprintf("pattern(%d)", int(p))
	}
	return patternNames[p]
}

// Valid reports whether p is a known pattern type.
func (p PatternType) Valid() bool { return p >= 0 && p < NumPatternTypes }

// IsCandlestick reports whether p is a single/two-bar candlestick pattern.
func (p PatternType) IsCandlestick() bool {
	return p >= PatternBullishEngulfing && p <= PatternDarkCloudCover
}

// IsChart reports whether p is a multi-bar chart pattern.
func (p PatternType) IsChart() bool {
	return p >= PatternDoubleTop && p <= PatternCupAndHandle
}

// IsReversal reports whether p signals a turn rather than a continuation.
func (p PatternType) IsReversal() bool {
	switch p {
	case PatternBullishEngulfing, PatternBearishEngulfing, PatternHammer, PatternShootingStar,
		PatternPiercingLine, PatternDarkCloudCover, PatternDoubleTop, PatternDoubleBottom,
		PatternHeadAndShoulders, PatternInverseHeadAndShoulders:
		return true
	}
	return false
}

func (p PatternType) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *PatternType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, ok := ParsePatternType(s)
	if !ok {
		return fmt.Errorf("unknown pattern type %q", s)
	}
	*p = t
	return nil
}

// ParsePatternType resolves a pattern name.
func ParsePatternType(s string) (PatternType, bool) {
	for i, name := range patternNames {
		if name == s {
			return PatternType(i), true
		}
	}
	return PatternNone, false
}

type PatternKind string

const (
	PatternKindCandlestick PatternKind = "candlestick"
	PatternKindChart       PatternKind = "chart"
)

// PatternResult is one detected pattern.
type PatternResult struct {
	Type              PatternType `json:"type"`
	Kind              PatternKind `json:"kind"`
	Confidence        float64     `json:"confidence"`
	Direction         Bias        `json:"direction"`
	HistoricalWinRate float64     `json:"historical_win_rate"`
	// Level is the pattern's reference price (neckline, breakout line or
	// the signal bar's close); zero when not applicable.
	Level float64 `json:"level,omitempty"`
}
