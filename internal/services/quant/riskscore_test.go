package quant

import (
	"testing"

	"TradePulse/internal/domain/models"
)

func TestRiskScoreLabels(t *testing.T) {
	calm := ComputeRiskScore(models.AlphaBeta{Beta: 1.0}, map[string]float64{}, 15.0, 0)
	if calm.Score != 0 || calm.Label != "low" {
		t.Fatalf("expected low/0, got %+v", calm)
	}

	// High beta + very high VIX + high gamma pushes past the high cutoff.
	stressed := ComputeRiskScore(
		models.AlphaBeta{Beta: 1.6},
		map[string]float64{"gamma": 0.15, "theta": -80},
		27.0,
		-0.6,
	)
	if stressed.Label != "high" {
		t.Fatalf("expected high label, got %+v", stressed)
	}
	if stressed.Score > 100 {
		t.Fatalf("score must cap at 100, got %d", stressed.Score)
	}
	if len(stressed.Factors) < 4 {
		t.Fatalf("expected contributing factors, got %v", stressed.Factors)
	}
}

func TestRiskScoreMediumBand(t *testing.T) {
	// Elevated VIX (15) + elevated beta (15) = 30, the medium floor.
	got := ComputeRiskScore(models.AlphaBeta{Beta: 1.3}, map[string]float64{}, 21.0, 0)
	if got.Score != 30 || got.Label != "medium" {
		t.Fatalf("expected medium/30, got %+v", got)
	}
}
