package agents

import (
	"context"
	"testing"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/state"
	"TradePulse/pkg/logger"
)

func risingSeries(n int, start, step float64) models.OHLCSeries {
	s := models.OHLCSeries{}
	v := start
	for i := 0; i < n; i++ {
		s.Open = append(s.Open, v)
		s.High = append(s.High, v+step)
		s.Low = append(s.Low, v-step)
		s.Close = append(s.Close, v+step/2)
		s.Volume = append(s.Volume, 1000)
		v += step
	}
	return s
}

func TestTechnicalRisingTrend(t *testing.T) {
	st := newCycleState(t)
	series := risingSeries(100, 25000, 10)
	st.Set(state.KeyHistorical, map[string]models.OHLCSeries{models.IndexNifty: series})
	st.Set(state.KeyLTP, map[string]float64{models.IndexNifty: series.Close[len(series.Close)-1]})
	agent := NewTechnical([]string{models.IndexNifty}, 78, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.(*models.TechnicalReport)
	nifty, ok := report.Indices[models.IndexNifty]
	if !ok {
		t.Fatalf("missing nifty technicals")
	}
	if nifty.Trend != "upward" {
		t.Fatalf("trend = %q, want upward on monotonic rise", nifty.Trend)
	}
	if nifty.RSI < 70 {
		t.Fatalf("rsi = %.1f, want overbought on monotonic rise", nifty.RSI)
	}
	if nifty.Support >= nifty.Resistance {
		t.Fatalf("support %.2f not below resistance %.2f", nifty.Support, nifty.Resistance)
	}
	if nifty.DefaultsApplied {
		t.Fatalf("defaults must not be flagged with full history")
	}
}

func TestTechnicalPriceOnlyFallback(t *testing.T) {
	st := newCycleState(t)
	st.Set(state.KeyLTP, map[string]float64{models.IndexNifty: 25000})
	agent := NewTechnical([]string{models.IndexNifty}, 78, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.(*models.TechnicalReport)
	nifty := report.Indices[models.IndexNifty]
	if !nifty.DefaultsApplied {
		t.Fatalf("expected flagged defaults without history")
	}
	if nifty.Support != 24750 || nifty.Resistance != 25250 {
		t.Fatalf("bands = %.2f/%.2f, want 24750/25250", nifty.Support, nifty.Resistance)
	}
	if nifty.RSI != 50 || nifty.Trend != "sideways" {
		t.Fatalf("expected neutral defaults, got rsi %.1f trend %q", nifty.RSI, nifty.Trend)
	}
}
