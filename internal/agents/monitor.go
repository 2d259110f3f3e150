package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/state"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/queue"
)

const (
	maxCycleDurationMs     = 30000
	minTasksRequired       = 4
	vixSpikeThreshold      = 22
	lowConfidenceThreshold = 0.3
	slowTaskMs             = 10000
)

// AlertMessageType tags monitoring alerts on the delivery queue.
const AlertMessageType = "monitor.alert"

// Monitor reviews the finished cycle: health, per-task timings, alerts
// and optimization hints. Alerts fan out through the queue when one is
// configured.
type Monitor struct {
	alerts     queue.QueueService
	cycleCount int
	l          *applogger.Logger
}

func NewMonitor(alerts queue.QueueService, l *applogger.Logger) *Monitor {
	return &Monitor{alerts: alerts, l: l}
}

func (a *Monitor) Name() string { return "monitor" }

func (a *Monitor) Run(ctx context.Context, st *state.SharedState) (any, error) {
	a.cycleCount++
	full := st.FullState()
	elapsed := elapsedMs(full)

	report := &models.MonitorReport{
		Health:        checkHealth(full, elapsed),
		Performance:   computePerformance(full, elapsed),
		Alerts:        generateAlerts(st, full, elapsed),
		Optimizations: a.suggestOptimizations(st, full),
		Timestamp:     time.Now(),
	}

	for _, alert := range report.Alerts {
		a.deliver(ctx, st.CycleID(), alert)
	}

	st.Set(state.KeyMonitor, report)
	a.l.Info("cycle reviewed",
		applogger.String("health", report.Health.Status),
		applogger.Int("alerts", len(report.Alerts)),
		applogger.Float64("elapsed_ms", elapsed),
	)
	return report, nil
}

func (a *Monitor) deliver(ctx context.Context, cycleID string, alert models.Alert) {
	if a.alerts == nil {
		return
	}
	payload := map[string]any{
		"cycle_id": cycleID,
		"type":     alert.Type,
		"severity": alert.Severity,
		"message":  alert.Message,
		"action":   alert.Action,
	}
	if err := a.alerts.PublishMessage(ctx, AlertMessageType, payload); err != nil {
		a.l.Warn("alert delivery failed", applogger.String("type", alert.Type), applogger.Error(err))
	}
}

// elapsedMs measures from the cycle start since the cycle is still open
// while the monitor runs.
func elapsedMs(full map[string]any) float64 {
	if start, ok := full[state.KeyCycleStart].(time.Time); ok && !start.IsZero() {
		return float64(time.Since(start)) / float64(time.Millisecond)
	}
	return 0
}

func checkHealth(full map[string]any, elapsed float64) models.HealthCheck {
	completed, _ := full[state.KeyTasksCompleted].([]string)
	faults, _ := full[state.KeyErrors].([]models.TaskFault)

	var issues []string
	if len(completed) < minTasksRequired {
		issues = append(issues, fmt.Sprintf("only %d/%d tasks completed", len(completed), minTasksRequired))
	}
	if len(faults) > 0 {
		names := make([]string, 0, len(faults))
		for _, f := range faults {
			names = append(names, f.Task)
		}
		issues = append(issues, fmt.Sprintf("%d task(s) reported errors: %s", len(faults), strings.Join(names, ", ")))
	}
	if elapsed > maxCycleDurationMs {
		issues = append(issues, fmt.Sprintf("cycle took %.0fms (limit %dms)", elapsed, maxCycleDurationMs))
	}
	if full[state.KeyMarketData] == nil {
		issues = append(issues, "no market data available")
	}

	status := "healthy"
	switch {
	case len(issues) > 2:
		status = "unhealthy"
	case len(issues) > 0:
		status = "degraded"
	}

	return models.HealthCheck{
		Status:         status,
		TasksCompleted: len(completed),
		TaskList:       completed,
		Errors:         len(faults),
		Issues:         issues,
	}
}

func computePerformance(full map[string]any, elapsed float64) models.Performance {
	perf := models.Performance{
		CycleDurationMs: elapsed,
		TaskTimings:     map[string]models.TaskTiming{},
	}
	for key, value := range full {
		out, ok := value.(models.TaskOutput)
		if !ok || !strings.HasPrefix(key, "task_") {
			continue
		}
		perf.TaskTimings[out.TaskName] = models.TaskTiming{
			DurationMs: out.DurationMs,
			Status:     out.Status,
		}
	}
	if decision, ok := full[state.KeyDecision].(*models.Decision); ok && decision != nil {
		perf.DecisionConfidence = decision.Confidence
		perf.PrimaryAction = decision.PrimaryAction.Action
	}
	return perf
}

func generateAlerts(st *state.SharedState, full map[string]any, elapsed float64) []models.Alert {
	var alerts []models.Alert

	vix := vixFrom(st, 0)
	if vix > vixSpikeThreshold {
		severity := "medium"
		if vix > 25 {
			severity = "high"
		}
		alerts = append(alerts, models.Alert{
			Type:     "vix_spike",
			Severity: severity,
			Message:  fmt.Sprintf("VIX at %.1f, above threshold (%d). Consider reducing exposure.", vix, vixSpikeThreshold),
			Action:   "Tighten stop-losses, reduce position sizes",
		})
	}

	if decision := decisionFrom(st); decision != nil && decision.Confidence > 0 && decision.Confidence < lowConfidenceThreshold {
		alerts = append(alerts, models.Alert{
			Type:     "low_confidence",
			Severity: "medium",
			Message:  fmt.Sprintf("Decision confidence at %.0f%%, below threshold. Signals may be conflicting.", decision.Confidence*100),
			Action:   "Consider waiting for clearer setup",
		})
	}

	if risk := riskFrom(st); risk.RiskLabel == "high" {
		alerts = append(alerts, models.Alert{
			Type:     "high_risk",
			Severity: "high",
			Message:  fmt.Sprintf("Risk score %d/100. Multiple risk factors elevated.", risk.RiskScore),
			Action:   "Reduce positions, add hedges",
		})
	}

	if faults, ok := full[state.KeyErrors].([]models.TaskFault); ok {
		for _, f := range faults {
			alerts = append(alerts, models.Alert{
				Type:     "agent_error",
				Severity: "medium",
				Message:  fmt.Sprintf("Task %q failed: %s", f.Task, f.Error),
				Action:   "Review task logs, data source may be down",
			})
		}
	}

	if elapsed > maxCycleDurationMs {
		alerts = append(alerts, models.Alert{
			Type:     "cycle_timeout",
			Severity: "low",
			Message:  fmt.Sprintf("Cycle duration %.0fms exceeds %dms limit", elapsed, maxCycleDurationMs),
			Action:   "Check inference speed, consider reducing prompt sizes",
		})
	}

	return alerts
}

func (a *Monitor) suggestOptimizations(st *state.SharedState, full map[string]any) []models.Suggestion {
	var suggestions []models.Suggestion

	if vix := vixFrom(st, 0); vix > 25 {
		suggestions = append(suggestions, models.Suggestion{
			Type:       "frequency",
			Suggestion: "Increase cycle frequency from 5min to 2min due to high VIX",
			Priority:   "high",
		})
	}

	for key, value := range full {
		out, ok := value.(models.TaskOutput)
		if !ok || !strings.HasPrefix(key, "task_") {
			continue
		}
		if out.DurationMs > slowTaskMs {
			suggestions = append(suggestions, models.Suggestion{
				Type:       "performance",
				Suggestion: fmt.Sprintf("Task %q took %.0fms, consider optimizing prompts or reducing data size", out.TaskName, out.DurationMs),
				Priority:   "medium",
			})
		}
	}

	if a.cycleCount >= 10 && a.cycleCount%10 == 0 {
		suggestions = append(suggestions, models.Suggestion{
			Type:       "review",
			Suggestion: "10+ cycles completed. Review recommendation accuracy against realized moves.",
			Priority:   "medium",
		})
	}

	return suggestions
}
