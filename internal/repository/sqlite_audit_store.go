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
	applogger "TradePulse/pkg/logger"

	_ "modernc.org/sqlite"
)

// SQLiteAuditStore implements AuditStore on an embedded SQLite database.
// It is the default backend: zero external dependencies and good enough
// for a single pipeline instance's audit trail.
type SQLiteAuditStore struct {
	db *sql.DB
	l  *applogger.Logger
}

// NewSQLiteAuditStore opens (or creates) the database at path. Use
// ":memory:" for an ephemeral store.
func NewSQLiteAuditStore(path string, l *applogger.Logger) (*SQLiteAuditStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite handles one writer at a time; the audit store is written
	// from the orchestrator goroutine only, but keep the pool at 1 so
	// concurrent readers never trip SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &SQLiteAuditStore{db: db, l: l}, nil
}

func (s *SQLiteAuditStore) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id TEXT UNIQUE NOT NULL,
			timestamp TEXT NOT NULL,
			duration_ms REAL DEFAULT 0,
			status TEXT DEFAULT 'running',
			full_state TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS task_outputs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id TEXT NOT NULL,
			task_name TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			duration_ms REAL DEFAULT 0,
			status TEXT,
			output_json TEXT,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS oi_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id TEXT NOT NULL,
			strike REAL NOT NULL,
			option_type TEXT NOT NULL,
			oi INTEGER DEFAULT 0,
			volume INTEGER DEFAULT 0,
			ltp REAL DEFAULT 0,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_oi_strike ON oi_history(strike, option_type)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteAuditStore) LogCycleStart(ctx context.Context, cycleID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (cycle_id, timestamp, status) VALUES (?, ?, ?)`,
		cycleID, time.Now().Format(time.RFC3339Nano), models.CycleRunning,
	)
	if err != nil {
		return fmt.Errorf("log cycle start: %w", err)
	}
	return nil
}

func (s *SQLiteAuditStore) LogCycleEnd(ctx context.Context, cycleID, status string, durationMs float64, fullState map[string]any) error {
	stateJSON, err := json.Marshal(fullState)
	if err != nil {
		// Non-encodable state must not lose the cycle row.
		if s.l != nil {
			s.l.Warn("cycle state not json-encodable", applogger.String("cycle_id", cycleID), applogger.Error(err))
		}
		stateJSON = []byte("{}")
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE cycles SET status=?, duration_ms=?, full_state=? WHERE cycle_id=?`,
		status, durationMs, string(stateJSON), cycleID,
	)
	if err != nil {
		return fmt.Errorf("log cycle end: %w", err)
	}
	return nil
}

func (s *SQLiteAuditStore) LogTaskOutput(ctx context.Context, cycleID string, output models.TaskOutput) error {
	outJSON, err := json.Marshal(output.Data)
	if err != nil {
		outJSON = []byte("{}")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO task_outputs (cycle_id, task_name, timestamp, duration_ms, status, output_json, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cycleID, output.TaskName, output.Timestamp.Format(time.RFC3339Nano),
		output.DurationMs, output.Status, string(outJSON), output.Error,
	)
	if err != nil {
		return fmt.Errorf("log task output: %w", err)
	}
	return nil
}

func (s *SQLiteAuditStore) LogOiData(ctx context.Context, cycleID string, chain []models.OptionQuote) error {
	if len(chain) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin oi tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO oi_history (cycle_id, strike, option_type, oi, volume, ltp, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare oi insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Format(time.RFC3339Nano)
	for _, opt := range chain {
		if _, err := stmt.ExecContext(ctx, cycleID, opt.Strike, opt.Type, opt.OI, opt.Volume, opt.LTP, now); err != nil {
			return fmt.Errorf("insert oi row: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteAuditStore) OiHistory(ctx context.Context, strike float64, optionType string, limit int) ([]models.OiSample, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT oi, volume, ltp, timestamp FROM oi_history
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
		var ts string
		if err := rows.Scan(&smp.OI, &smp.Volume, &smp.LTP, &ts); err != nil {
			return nil, fmt.Errorf("scan oi row: %w", err)
		}
		smp.Strike = strike
		smp.Type = optionType
		smp.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

func (s *SQLiteAuditStore) RecentCycles(ctx context.Context, limit int) ([]models.CycleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cycle_id, timestamp, duration_ms, status FROM cycles ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent cycles: %w", err)
	}
	defer rows.Close()

	var records []models.CycleRecord
	for rows.Next() {
		rec, err := scanCycleRow(rows.Scan, false)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *SQLiteAuditStore) CycleDetail(ctx context.Context, cycleID string) (*models.CycleRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, cycle_id, timestamp, duration_ms, status, full_state FROM cycles WHERE cycle_id=?`,
		cycleID,
	)
	rec, err := scanCycleRow(row.Scan, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domrepo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteAuditStore) Close() error {
	return s.db.Close()
}

func scanCycleRow(scan func(dest ...any) error, withState bool) (*models.CycleRecord, error) {
	var rec models.CycleRecord
	var ts string
	var state sql.NullString

	dest := []any{&rec.ID, &rec.CycleID, &ts, &rec.DurationMs, &rec.Status}
	if withState {
		dest = append(dest, &state)
	}
	if err := scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan cycle row: %w", err)
	}

	rec.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
	if state.Valid && state.String != "" {
		if err := json.Unmarshal([]byte(state.String), &rec.FullState); err != nil {
			rec.FullState = map[string]any{"raw": state.String}
		}
	}
	return &rec, nil
}
