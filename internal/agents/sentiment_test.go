package agents

import (
	"context"
	"testing"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/state"
	"TradePulse/pkg/logger"
)

func newCycleState(t *testing.T) *state.SharedState {
	t.Helper()
	st := state.New()
	st.StartCycle()
	return st
}

func TestSentimentNoNewsIsNeutral(t *testing.T) {
	st := newCycleState(t)
	agent := NewSentiment(nil, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.(*models.SentimentReport)
	if report.Label != "neutral" || report.Score != 0 {
		t.Fatalf("expected neutral zero score, got %q %.2f", report.Label, report.Score)
	}
	if _, ok := st.Get(state.KeySentiment).(*models.SentimentReport); !ok {
		t.Fatalf("report not stored in state")
	}
}

func TestSentimentKeywordScoring(t *testing.T) {
	st := newCycleState(t)
	st.Set(state.KeyNews, []models.NewsItem{
		{Title: "Nifty set to surge as earnings beat estimates, rally expected"},
		{Title: "Banking stocks jump on strong growth outlook"},
	})
	agent := NewSentiment(nil, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.(*models.SentimentReport)
	if report.Label != "positive" {
		t.Fatalf("expected positive label, got %q (score %.2f)", report.Label, report.Score)
	}
	if report.Method != "keyword" {
		t.Fatalf("expected keyword method, got %q", report.Method)
	}
	if len(report.PerHeadline) != 2 {
		t.Fatalf("expected 2 headline scores, got %d", len(report.PerHeadline))
	}
	// First headline has surge, beat, rally: 3 hits at 0.3 each, clamped to 0.9.
	if got := report.PerHeadline[0].Score; got < 0.89 || got > 0.91 {
		t.Fatalf("first headline score = %.2f, want 0.9", got)
	}
}

func TestSentimentNegativeAndClamp(t *testing.T) {
	st := newCycleState(t)
	st.Set(state.KeyNews, []models.NewsItem{
		{Title: "Markets crash in broad selloff as recession fear triggers plunge and heavy loss"},
	})
	agent := NewSentiment(nil, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.(*models.SentimentReport)
	if report.Label != "negative" {
		t.Fatalf("expected negative label, got %q", report.Label)
	}
	if report.Score < -1 || report.PerHeadline[0].Score < -1 {
		t.Fatalf("score not clamped: %.2f", report.Score)
	}
	if !report.VolatilityCatalyst {
		t.Fatalf("expected volatility catalyst at score %.2f", report.Score)
	}
}

func TestSentimentMixedIsNeutral(t *testing.T) {
	st := newCycleState(t)
	st.Set(state.KeyNews, []models.NewsItem{
		{Title: "Stocks rise on optimism"},
		{Title: "Stocks fall on concern"},
	})
	agent := NewSentiment(nil, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.(*models.SentimentReport)
	if report.Label != "neutral" {
		t.Fatalf("expected neutral on offsetting headlines, got %q (%.2f)", report.Label, report.Score)
	}
}
