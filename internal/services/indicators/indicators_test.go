package indicators

import (
	"math"
	"testing"

	"FinSignal/internal/domain/models"
)

func series(n int, f func(i int) float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		c := f(i)
		out[i] = models.Candle{Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 1000}
	}
	return out
}

func TestShortInputsDoNotPanic(t *testing.T) {
	for n := 0; n < 32; n++ {
		c := series(n, func(i int) float64 { return 100 + float64(i) })
		closes := models.Closes(c)
		_ = EMA(closes, 200)
		_ = SMA(closes, 20)
		_ = ATR(c, 14)
		_ = ADX(c, 14)
		_ = RSI(closes, 14)
		_ = Compute(c, false)
		_ = Compute(c, true)
	}
}

func TestEMADegradesToSeriesLength(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 50
	}
	if v := EMA(closes, 200); math.Abs(v-50) > 1e-9 {
		t.Fatalf("EMA over constant series = %v", v)
	}
}

func TestATRSeriesAlignedAndPositive(t *testing.T) {
	c := series(40, func(i int) float64 { return 100 })
	atr := ATRSeries(c, 14)
	if len(atr) != len(c) {
		t.Fatalf("len = %d", len(atr))
	}
	for i, v := range atr {
		if v <= 0 {
			t.Fatalf("atr[%d] = %v", i, v)
		}
	}
	// constant bars: true range is 2% of price
	if math.Abs(atr[len(atr)-1]-2) > 1e-6 {
		t.Fatalf("unexpected atr %v", atr[len(atr)-1])
	}
}

func TestRSIFallbackAndTrend(t *testing.T) {
	if v := RSI([]float64{1, 2, 3}, 14); v != 50 {
		t.Fatalf("short rsi = %v", v)
	}
	up := make([]float64, 40)
	for i := range up {
		up[i] = 100 + float64(i)
		if i%3 == 0 {
			up[i] -= 0.5
		}
	}
	if v := RSI(up, 14); v <= 50 {
		t.Fatalf("rising rsi = %v", v)
	}
}

func TestADXShortIsZero(t *testing.T) {
	c := series(20, func(i int) float64 { return 100 + float64(i) })
	if v := ADX(c, 14); v != 0 {
		t.Fatalf("adx = %v", v)
	}
}

func TestComputeSnapshot(t *testing.T) {
	c := series(80, func(i int) float64 { return 100 + float64(i)*0.5 })
	c[len(c)-1].Volume = 2000
	s := Compute(c, false)
	if s.LastClose != c[len(c)-1].Close {
		t.Fatalf("last close = %v", s.LastClose)
	}
	if !s.HasVolume || math.Abs(s.VolumeRatio-2) > 1e-9 {
		t.Fatalf("volume ratio = %v has=%v", s.VolumeRatio, s.HasVolume)
	}
	if s.EMAFast <= s.EMASlow {
		t.Fatalf("uptrend should have fast EMA above slow: %v <= %v", s.EMAFast, s.EMASlow)
	}
	if len(s.ATRSeries) != len(c) || s.ATR <= 0 {
		t.Fatalf("atr not populated")
	}
}
