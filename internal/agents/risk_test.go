package agents

import (
	"context"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/state"
	"TradePulse/pkg/logger"
)

func TestRiskEmptyStateStillReports(t *testing.T) {
	st := newCycleState(t)
	agent := NewRisk(RiskConfig{}, nil, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run on empty state: %v", err)
	}
	report := out.(*models.RiskReport)
	if report.Beta != 1.0 {
		t.Fatalf("beta = %.2f, want neutral 1.0 without history", report.Beta)
	}
	if report.RiskLabel == "" {
		t.Fatalf("risk label must always be set")
	}
	if report.VIX != 15.0 {
		t.Fatalf("vix = %.1f, want default 15", report.VIX)
	}
}

func TestRiskGreeksComputed(t *testing.T) {
	st := newCycleState(t)
	expiry := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	st.Set(state.KeyLTP, map[string]float64{models.IndexNifty: 25000})
	st.Set(state.KeyVIX, 14.0)
	st.Set(state.KeyOptionsChain, []models.OptionQuote{
		{Index: models.IndexNifty, Strike: 25000, Type: models.OptionCall, IV: 14, Expiry: expiry, LTP: 120},
		{Index: models.IndexNifty, Strike: 25000, Type: models.OptionPut, IV: 14, Expiry: expiry, LTP: 110},
	})
	agent := NewRisk(RiskConfig{}, nil, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.(*models.RiskReport)
	if len(report.GreeksPerOption) != 2 {
		t.Fatalf("greeks = %d contracts, want 2", len(report.GreeksPerOption))
	}

	call, put := report.GreeksPerOption[0], report.GreeksPerOption[1]
	if call.Delta <= 0 || call.Delta >= 1 {
		t.Fatalf("call delta = %.4f, want (0, 1)", call.Delta)
	}
	if put.Delta >= 0 || put.Delta <= -1 {
		t.Fatalf("put delta = %.4f, want (-1, 0)", put.Delta)
	}
	if call.Gamma <= 0 || call.Vega <= 0 {
		t.Fatalf("gamma/vega must be positive, got %.4f/%.4f", call.Gamma, call.Vega)
	}

	// ATM call and put deltas sum to about zero portfolio delta.
	delta := report.PortfolioGreeks["delta"]
	if delta < -0.2 || delta > 0.2 {
		t.Fatalf("portfolio delta = %.4f, want near zero for ATM straddle", delta)
	}
	if report.PortfolioGreeks["gamma"] <= 0 {
		t.Fatalf("portfolio gamma must be positive")
	}
}

func TestRiskScoreRespondsToVIX(t *testing.T) {
	calm := newCycleState(t)
	calm.Set(state.KeyVIX, 12.0)
	stressed := newCycleState(t)
	stressed.Set(state.KeyVIX, 30.0)
	agent := NewRisk(RiskConfig{}, nil, logger.Nop())

	outCalm, err := agent.Run(context.Background(), calm)
	if err != nil {
		t.Fatalf("run calm: %v", err)
	}
	outStressed, err := agent.Run(context.Background(), stressed)
	if err != nil {
		t.Fatalf("run stressed: %v", err)
	}

	calmScore := outCalm.(*models.RiskReport).RiskScore
	stressedScore := outStressed.(*models.RiskReport).RiskScore
	if stressedScore <= calmScore {
		t.Fatalf("stressed score %d must exceed calm score %d", stressedScore, calmScore)
	}
}
