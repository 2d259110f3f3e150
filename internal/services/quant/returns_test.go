package quant

import (
	"math"
	"testing"
)

func TestAlphaBetaIdenticalSeries(t *testing.T) {
	closes := []float64{100, 101, 100.5, 102, 101.5, 103, 102.5, 104, 103.5, 105, 104.5, 106, 105.5, 107}
	ab := AlphaBeta(closes, closes, 12, 0)
	if math.Abs(ab.Beta-1.0) > 1e-9 {
		t.Fatalf("beta of a series against itself must be 1, got %v", ab.Beta)
	}
	if math.Abs(ab.Alpha) > 1e-6 {
		t.Fatalf("alpha of a series against itself must be ~0, got %v", ab.Alpha)
	}
}

func TestAlphaBetaInsufficientData(t *testing.T) {
	ab := AlphaBeta(nil, nil, 12, 0)
	if ab.Beta != 1.0 || ab.Alpha != 0 {
		t.Fatalf("expected neutral defaults, got %+v", ab)
	}
	if ab.Note == "" {
		t.Fatalf("expected a note on the fallback")
	}

	short := AlphaBeta([]float64{100, 101}, []float64{100, 101}, 12, 0)
	if short.Beta != 1.0 {
		t.Fatalf("expected neutral beta on too-few points, got %v", short.Beta)
	}
}

func TestAlphaBetaWindowBound(t *testing.T) {
	port := make([]float64, 100)
	mkt := make([]float64, 100)
	for i := range port {
		port[i] = 100 + float64(i)*0.5
		mkt[i] = 200 + float64(i)*0.25
	}
	ab := AlphaBeta(port, mkt, 12, 0)
	if ab.WindowPeriods != 12 {
		t.Fatalf("expected window 12, got %d", ab.WindowPeriods)
	}
}

func TestAlphaBetaZeroMarketVariance(t *testing.T) {
	port := []float64{100, 101, 102, 103, 104, 105}
	flat := []float64{200, 200, 200, 200, 200, 200}
	ab := AlphaBeta(port, flat, 12, 0)
	if ab.Beta != 1.0 {
		t.Fatalf("zero market variance must default beta to 1, got %v", ab.Beta)
	}
}
