package quant

import (
	"math"
	"testing"
)

func TestPutCallParity(t *testing.T) {
	S, K, tt, r, sigma := 25000.0, 25100.0, 14.0/365, 0.05, 0.18

	call := blackScholesRaw(S, K, tt, r, sigma, true)
	put := blackScholesRaw(S, K, tt, r, sigma, false)

	// C - P = S - K*e^(-rt)
	lhs := call - put
	rhs := S - K*math.Exp(-r*tt)
	if math.Abs(lhs-rhs) > 1e-6 {
		t.Fatalf("parity violated: C-P=%v, S-Ke^-rt=%v", lhs, rhs)
	}
}

// blackScholesRaw recomputes the unrounded theoretical price so parity
// can be checked at full precision.
func blackScholesRaw(S, K, t, r, sigma float64, call bool) float64 {
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(S/K) + (r+sigma*sigma/2)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	if call {
		return S*normCDF(d1) - K*math.Exp(-r*t)*normCDF(d2)
	}
	return K*math.Exp(-r*t)*normCDF(-d2) - S*normCDF(-d1)
}

func TestCallDeltaBounds(t *testing.T) {
	g := BlackScholes(25000, 24000, 14.0/365, 0.05, 0.2, true)
	if g.Delta <= 0.5 || g.Delta > 1 {
		t.Fatalf("deep ITM call delta should approach 1, got %v", g.Delta)
	}
	p := BlackScholes(25000, 24000, 14.0/365, 0.05, 0.2, false)
	if p.Delta >= 0 || p.Delta < -1 {
		t.Fatalf("put delta must be in [-1, 0), got %v", p.Delta)
	}
}

func TestGammaAndVegaPositive(t *testing.T) {
	g := BlackScholes(25000, 25000, 7.0/365, 0.05, 0.15, true)
	if g.Gamma <= 0 {
		t.Fatalf("gamma must be positive, got %v", g.Gamma)
	}
	if g.Vega <= 0 {
		t.Fatalf("vega must be positive, got %v", g.Vega)
	}
}

func TestDegenerateInputsZeroed(t *testing.T) {
	for _, g := range []struct {
		name        string
		S, K, sigma float64
	}{
		{"zero spot", 0, 25000, 0.2},
		{"zero strike", 25000, 0, 0.2},
		{"zero vol", 25000, 25000, 0},
	} {
		got := BlackScholes(g.S, g.K, 7.0/365, 0.05, g.sigma, true)
		if !got.Degenerate || got.Reason == "" {
			t.Fatalf("%s: expected degenerate result with reason, got %+v", g.name, got)
		}
		if got.Delta != 0 || got.Gamma != 0 || got.TheoreticalPrice != 0 {
			t.Fatalf("%s: expected zeroed greeks, got %+v", g.name, got)
		}
	}
}

func TestExpiredOptionUsesOneHourFloor(t *testing.T) {
	g := BlackScholes(25000, 25000, 0, 0.05, 0.2, true)
	if g.Degenerate {
		t.Fatalf("expected valid greeks at the expiry floor, got %+v", g)
	}
	if g.TheoreticalPrice <= 0 {
		t.Fatalf("ATM option at the floor should still carry value, got %v", g.TheoreticalPrice)
	}
}
