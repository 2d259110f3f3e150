package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/pkg/logger"
)

func newTestStore(t *testing.T) *SQLiteAuditStore {
	t.Helper()
	store, err := NewSQLiteAuditStore(":memory:", logger.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCycleRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cycleID := "20260831_101500"
	if err := store.LogCycleStart(ctx, cycleID); err != nil {
		t.Fatalf("log start: %v", err)
	}

	state := map[string]any{"vix": 16.5, "cycle_id": cycleID}
	if err := store.LogCycleEnd(ctx, cycleID, models.CycleCompleted, 1234.5, state); err != nil {
		t.Fatalf("log end: %v", err)
	}

	rec, err := store.CycleDetail(ctx, cycleID)
	if err != nil {
		t.Fatalf("cycle detail: %v", err)
	}
	if rec.CycleID != cycleID {
		t.Fatalf("cycle_id mismatch: %v", rec.CycleID)
	}
	if rec.Status != models.CycleCompleted {
		t.Fatalf("status mismatch: %v", rec.Status)
	}
	if rec.DurationMs != 1234.5 {
		t.Fatalf("duration mismatch: %v", rec.DurationMs)
	}
	if rec.FullState["vix"] != 16.5 {
		t.Fatalf("full state lost: %v", rec.FullState)
	}
}

func TestCycleDetailNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CycleDetail(context.Background(), "nope")
	if !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentCyclesNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"c1", "c2", "c3"} {
		if err := store.LogCycleStart(ctx, id); err != nil {
			t.Fatalf("log start %s: %v", id, err)
		}
	}

	records, err := store.RecentCycles(ctx, 2)
	if err != nil {
		t.Fatalf("recent cycles: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].CycleID != "c3" || records[1].CycleID != "c2" {
		t.Fatalf("expected newest first, got %v %v", records[0].CycleID, records[1].CycleID)
	}
}

func TestTaskOutputPersisted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.LogCycleStart(ctx, "c1"); err != nil {
		t.Fatalf("log start: %v", err)
	}
	out := models.TaskOutput{
		TaskName:   "technical",
		Timestamp:  time.Now(),
		Data:       map[string]any{"trend": "upward"},
		DurationMs: 12.5,
		Status:     models.TaskSuccess,
	}
	if err := store.LogTaskOutput(ctx, "c1", out); err != nil {
		t.Fatalf("log task output: %v", err)
	}
}

func TestOiHistoryLastNNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Three cycles of OI samples for the same contract.
	for i, oi := range []int64{100000, 110000, 120000} {
		chain := []models.OptionQuote{
			{Index: models.IndexNifty, Strike: 25000, Type: models.OptionCall, OI: oi, Volume: 1000 * int64(i+1), LTP: 100},
		}
		if err := store.LogOiData(ctx, "cycle", chain); err != nil {
			t.Fatalf("log oi: %v", err)
		}
		time.Sleep(2 * time.Millisecond) // distinct timestamps for ordering
	}

	samples, err := store.OiHistory(ctx, 25000, models.OptionCall, 2)
	if err != nil {
		t.Fatalf("oi history: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].OI != 120000 {
		t.Fatalf("expected newest first, got OI %d", samples[0].OI)
	}
	// Unknown contract yields no history, not an error.
	empty, err := store.OiHistory(ctx, 99999, models.OptionPut, 5)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty history, got %v %v", empty, err)
	}
}
