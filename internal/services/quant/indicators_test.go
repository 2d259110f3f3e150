package quant

import (
	"math"
	"testing"
)

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	if got := RSI(closes, 14); got != 100.0 {
		t.Fatalf("expected RSI 100 on all-gains series, got %v", got)
	}
}

func TestRSIShortSeriesDefaultsNeutral(t *testing.T) {
	if got := RSI([]float64{100, 101, 102}, 14); got != 50.0 {
		t.Fatalf("expected neutral 50, got %v", got)
	}
}

func TestRSIBounded(t *testing.T) {
	closes := []float64{100, 102, 101, 103, 99, 104, 98, 105, 97, 106, 102, 101, 103, 100, 104, 102}
	got := RSI(closes, 14)
	if got < 0 || got > 100 {
		t.Fatalf("RSI out of range: %v", got)
	}
}

func TestEMASeededWithSMA(t *testing.T) {
	// Constant series: EMA must equal the constant.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 50
	}
	if got := EMA(closes, 9); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	// Shorter than period falls back to plain mean.
	if got := EMA([]float64{10, 20}, 9); got != 15 {
		t.Fatalf("expected mean fallback 15, got %v", got)
	}
}

func TestPivotsClassicFormulas(t *testing.T) {
	highs := []float64{110}
	lows := []float64{90}
	closes := []float64{100}

	p := Pivots(highs, lows, closes, 78)
	if p.PP != 100 {
		t.Fatalf("expected PP 100, got %v", p.PP)
	}
	if p.R1 != 110 || p.S1 != 90 {
		t.Fatalf("unexpected R1/S1: %v/%v", p.R1, p.S1)
	}
	if p.R2 != 120 || p.S2 != 80 {
		t.Fatalf("unexpected R2/S2: %v/%v", p.R2, p.S2)
	}
	if p.R3 != 130 || p.S3 != 70 {
		t.Fatalf("unexpected R3/S3: %v/%v", p.R3, p.S3)
	}
}

func TestPivotsUsesSessionWindow(t *testing.T) {
	// A spike older than the window must not affect the pivots.
	highs := make([]float64, 100)
	lows := make([]float64, 100)
	closes := make([]float64, 100)
	for i := range highs {
		highs[i] = 105
		lows[i] = 95
		closes[i] = 100
	}
	highs[0] = 10000

	p := Pivots(highs, lows, closes, 78)
	if p.PP > 200 {
		t.Fatalf("stale spike leaked into window: PP=%v", p.PP)
	}
}

func TestTrendClassification(t *testing.T) {
	up := []float64{100, 101, 102, 110}
	if got := Trend(up, 108, 105); got != "upward" {
		t.Fatalf("expected upward, got %v", got)
	}
	down := []float64{110, 108, 104, 100}
	if got := Trend(down, 103, 105); got != "downward" {
		t.Fatalf("expected downward, got %v", got)
	}
	if got := Trend(up, 105, 105); got != "sideways" {
		t.Fatalf("expected sideways, got %v", got)
	}
}

func TestRSISignalBands(t *testing.T) {
	cases := map[float64]string{
		75: "overbought",
		65: "bullish",
		50: "neutral",
		35: "bearish",
		25: "oversold",
	}
	for rsi, want := range cases {
		if got := RSISignal(rsi); got != want {
			t.Fatalf("RSISignal(%v) = %v, want %v", rsi, got, want)
		}
	}
}

func TestVolumeStatsFlagsDeviation(t *testing.T) {
	vols := []float64{100, 100, 100, 100, 160}
	vs := VolumeStats(vols)
	if vs.Trend != "increasing" {
		t.Fatalf("expected increasing, got %v", vs.Trend)
	}
	if math.Abs(vs.Ratio-160.0/112.0) > 0.01 {
		t.Fatalf("unexpected ratio %v", vs.Ratio)
	}

	low := []float64{100, 100, 100, 100, 20}
	if got := VolumeStats(low).Trend; got != "decreasing" {
		t.Fatalf("expected decreasing, got %v", got)
	}
}
