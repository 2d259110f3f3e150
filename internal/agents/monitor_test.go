package agents

import (
	"context"
	"testing"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/state"
	"TradePulse/pkg/logger"
)

func completedCycleState(t *testing.T) *state.SharedState {
	t.Helper()
	st := newCycleState(t)
	st.Set(state.KeyMarketData, &models.MarketSnapshot{})
	for _, name := range []string{"market_data", "technical", "risk_metrics", "sentiment", "active_trades", "decision"} {
		st.RecordTaskOutput(models.TaskOutput{
			TaskName:   name,
			Status:     models.TaskSuccess,
			DurationMs: 12.5,
		})
	}
	return st
}

func TestMonitorHealthyCycle(t *testing.T) {
	st := completedCycleState(t)
	st.Set(state.KeyVIX, 15.0)
	agent := NewMonitor(nil, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.(*models.MonitorReport)
	if report.Health.Status != "healthy" {
		t.Fatalf("status = %q (issues %v), want healthy", report.Health.Status, report.Health.Issues)
	}
	if report.Health.TasksCompleted != 6 {
		t.Fatalf("tasks completed = %d, want 6", report.Health.TasksCompleted)
	}
	if len(report.Alerts) != 0 {
		t.Fatalf("unexpected alerts on calm cycle: %+v", report.Alerts)
	}
	if len(report.Performance.TaskTimings) != 6 {
		t.Fatalf("task timings = %d, want 6", len(report.Performance.TaskTimings))
	}
	if got := report.Performance.TaskTimings["technical"].DurationMs; got != 12.5 {
		t.Fatalf("technical timing = %.1f, want 12.5", got)
	}
}

func TestMonitorDegradedOnMissingTasks(t *testing.T) {
	st := newCycleState(t)
	st.Set(state.KeyMarketData, &models.MarketSnapshot{})
	st.RecordTaskOutput(models.TaskOutput{TaskName: "market_data", Status: models.TaskSuccess})
	agent := NewMonitor(nil, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.(*models.MonitorReport)
	if report.Health.Status != "degraded" {
		t.Fatalf("status = %q, want degraded with 1 issue", report.Health.Status)
	}
}

func TestMonitorAlerts(t *testing.T) {
	st := completedCycleState(t)
	st.Set(state.KeyVIX, 26.0)
	st.Set(state.KeyRiskMetrics, &models.RiskReport{RiskLabel: "high", RiskScore: 75})
	st.Set(state.KeyDecision, &models.Decision{Confidence: 0.2, PrimaryAction: models.TradeAction{Action: "HOLD"}})
	st.RecordTaskOutput(models.TaskOutput{TaskName: "sentiment", Status: models.TaskError, Error: "llm unreachable"})
	agent := NewMonitor(nil, logger.Nop())

	out, err := agent.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.(*models.MonitorReport)

	byType := map[string]models.Alert{}
	for _, a := range report.Alerts {
		byType[a.Type] = a
	}
	if a, ok := byType["vix_spike"]; !ok || a.Severity != "high" {
		t.Fatalf("expected high-severity vix_spike, got %+v", byType)
	}
	if _, ok := byType["low_confidence"]; !ok {
		t.Fatalf("expected low_confidence alert")
	}
	if a, ok := byType["high_risk"]; !ok || a.Severity != "high" {
		t.Fatalf("expected high-severity high_risk alert")
	}
	if a, ok := byType["agent_error"]; !ok || a.Severity != "medium" {
		t.Fatalf("expected agent_error alert for failed task")
	}
	if report.Performance.PrimaryAction != "HOLD" {
		t.Fatalf("primary action = %q, want HOLD", report.Performance.PrimaryAction)
	}

	// High VIX also drives a frequency suggestion.
	var found bool
	for _, s := range report.Optimizations {
		if s.Type == "frequency" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected frequency suggestion at VIX 26, got %+v", report.Optimizations)
	}
}
