package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	pkgch "TradePulse/pkg/clickhouse"
	applogger "TradePulse/pkg/logger"
)

// ClickHouseAuditStore implements AuditStore on ClickHouse for
// long-retention deployments. Cycle rows use a ReplacingMergeTree so
// the end-of-cycle write supersedes the start row without updates.
type ClickHouseAuditStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewClickHouseAuditStore(ch *pkgch.Client, l *applogger.Logger) *ClickHouseAuditStore {
	return &ClickHouseAuditStore{db: ch.DB(), l: l}
}

func (s *ClickHouseAuditStore) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE DATABASE IF NOT EXISTS tradepulse`,
		`CREATE TABLE IF NOT EXISTS tradepulse.cycles (
			cycle_id String,
			timestamp DateTime64(3),
			duration_ms Float64,
			status String,
			full_state String,
			updated_at DateTime64(3)
		) ENGINE = ReplacingMergeTree(updated_at) ORDER BY cycle_id`,
		`CREATE TABLE IF NOT EXISTS tradepulse.task_outputs (
			cycle_id String,
			task_name String,
			timestamp DateTime64(3),
			duration_ms Float64,
			status String,
			output_json String,
			error String
		) ENGINE = MergeTree ORDER BY (cycle_id, task_name, timestamp)`,
		`CREATE TABLE IF NOT EXISTS tradepulse.oi_history (
			cycle_id String,
			strike Float64,
			option_type String,
			oi Int64,
			volume Int64,
			ltp Float64,
			timestamp DateTime64(3)
		) ENGINE = MergeTree ORDER BY (strike, option_type, timestamp)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init clickhouse schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseAuditStore) LogCycleStart(ctx context.Context, cycleID string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tradepulse.cycles (cycle_id, timestamp, duration_ms, status, full_state, updated_at)
		 VALUES (?, ?, 0, ?, '', ?)`,
		cycleID, now, models.CycleRunning, now,
	)
	if err != nil {
		return fmt.Errorf("log cycle start: %w", err)
	}
	return nil
}

func (s *ClickHouseAuditStore) LogCycleEnd(ctx context.Context, cycleID, status string, durationMs float64, fullState map[string]any) error {
	stateJSON, err := json.Marshal(fullState)
	if err != nil {
		if s.l != nil {
			s.l.Warn("cycle state not json-encodable", applogger.String("cycle_id", cycleID), applogger.Error(err))
		}
		stateJSON = []byte("{}")
	}
	// The replacing engine keeps the row with the newest updated_at.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tradepulse.cycles (cycle_id, timestamp, duration_ms, status, full_state, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cycleID, time.Now(), durationMs, status, string(stateJSON), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("log cycle end: %w", err)
	}
	return nil
}

func (s *ClickHouseAuditStore) LogTaskOutput(ctx context.Context, cycleID string, output models.TaskOutput) error {
	outJSON, err := json.Marshal(output.Data)
	if err != nil {
		outJSON = []byte("{}")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tradepulse.task_outputs (cycle_id, task_name, timestamp, duration_ms, status, output_json, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cycleID, output.TaskName, output.Timestamp, output.DurationMs, output.Status, string(outJSON), output.Error,
	)
	if err != nil {
		return fmt.Errorf("log task output: %w", err)
	}
	return nil
}

func (s *ClickHouseAuditStore) LogOiData(ctx context.Context, cycleID string, chain []models.OptionQuote) error {
	now := time.Now()
	for _, opt := range chain {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO tradepulse.oi_history (cycle_id, strike, option_type, oi, volume, ltp, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			cycleID, opt.Strike, opt.Type, opt.OI, opt.Volume, opt.LTP, now,
		)
		if err != nil {
			return fmt.Errorf("insert oi row: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseAuditStore) OiHistory(ctx context.Context, strike float64, optionType string, limit int) ([]models.OiSample, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT oi, volume, ltp, timestamp FROM tradepulse.oi_history
		 WHERE strike=? AND option_type=?
		 ORDER BY timestamp DESC LIMIT ?`,
		strike, optionType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("oi history: %w", err)
	}
	defer rows.Close()

	var samples []models.OiSample
	for rows.Next() {
		var smp models.OiSample
		if err := rows.Scan(&smp.OI, &smp.Volume, &smp.LTP, &smp.Timestamp); err != nil {
			return nil, fmt.Errorf("scan oi row: %w", err)
		}
		smp.Strike = strike
		smp.Type = optionType
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

func (s *ClickHouseAuditStore) RecentCycles(ctx context.Context, limit int) ([]models.CycleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT cycle_id, timestamp, duration_ms, status FROM tradepulse.cycles FINAL
		 ORDER BY timestamp DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent cycles: %w", err)
	}
	defer rows.Close()

	var records []models.CycleRecord
	for rows.Next() {
		var rec models.CycleRecord
		if err := rows.Scan(&rec.CycleID, &rec.Timestamp, &rec.DurationMs, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan cycle row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *ClickHouseAuditStore) CycleDetail(ctx context.Context, cycleID string) (*models.CycleRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cycle_id, timestamp, duration_ms, status, full_state FROM tradepulse.cycles FINAL
		 WHERE cycle_id=?`,
		cycleID,
	)
	var rec models.CycleRecord
	var state string
	if err := row.Scan(&rec.CycleID, &rec.Timestamp, &rec.DurationMs, &rec.Status, &state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domrepo.ErrNotFound
		}
		return nil, fmt.Errorf("cycle detail: %w", err)
	}
	if state != "" {
		if err := json.Unmarshal([]byte(state), &rec.FullState); err != nil {
			rec.FullState = map[string]any{"raw": state}
		}
	}
	return &rec, nil
}

func (s *ClickHouseAuditStore) Close() error {
	return nil // connection owned by pkg/clickhouse
}
