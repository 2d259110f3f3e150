package repository

import (
	"context"
	"errors"

	"TradePulse/internal/domain/models"
)

// ErrNotFound is returned when a requested cycle does not exist.
var ErrNotFound = errors.New("not found")

// AuditStore is the durable cycle log: cycles, per-task outputs and
// open-interest history for rolling comparisons.
type AuditStore interface {
	Init(ctx context.Context) error // ensure tables
	LogCycleStart(ctx context.Context, cycleID string) error
	LogCycleEnd(ctx context.Context, cycleID, status string, durationMs float64, fullState map[string]any) error
	LogTaskOutput(ctx context.Context, cycleID string, output models.TaskOutput) error
	LogOiData(ctx context.Context, cycleID string, chain []models.OptionQuote) error
	OiHistory(ctx context.Context, strike float64, optionType string, limit int) ([]models.OiSample, error)
	RecentCycles(ctx context.Context, limit int) ([]models.CycleRecord, error)
	CycleDetail(ctx context.Context, cycleID string) (*models.CycleRecord, error)
	Close() error
}

// MarketDataProvider supplies the per-cycle market snapshot.
type MarketDataProvider interface {
	Snapshot(ctx context.Context) (*models.MarketSnapshot, error)
}

// Publisher fans completed cycle results out to external consumers.
type Publisher interface {
	PublishCycle(ctx context.Context, result *models.CycleResult) error
	Close() error
}

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordCycle(status string)
	RecordTask(task, status string, seconds float64)
	RecordLastPrice(index string, price float64)
	RecordRisk(score float64, vix float64)
}
