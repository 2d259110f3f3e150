package notify

import (
	"context"

	"TradePulse/internal/agents"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/queue"
)

// AlertPayload is the queue message body for one monitoring alert.
type AlertPayload struct {
	CycleID  string `json:"cycle_id"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// AlertJob consumes monitoring alerts off the queue and logs them at a
// level matching their severity. It is the seam where mail or chat
// delivery would plug in.
type AlertJob struct {
	l *applogger.Logger
}

func NewAlertJob(l *applogger.Logger) *AlertJob {
	return &AlertJob{l: l}
}

func (j *AlertJob) Name() string { return "alert-delivery" }

func (j *AlertJob) Type() string { return agents.AlertMessageType }

func (j *AlertJob) Handle(ctx context.Context, payload interface{}) error {
	alert, err := queue.ParsePayload[AlertPayload](payload)
	if err != nil {
		return err
	}

	fields := []applogger.Field{
		applogger.String("cycle_id", alert.CycleID),
		applogger.String("type", alert.Type),
		applogger.String("severity", alert.Severity),
		applogger.String("action", alert.Action),
	}
	if alert.Severity == "high" {
		j.l.Error(alert.Message, fields...)
	} else {
		j.l.Warn(alert.Message, fields...)
	}
	return nil
}
